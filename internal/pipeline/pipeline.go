package pipeline

import (
	"fmt"
	"strings"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/metrics"
)

// Pipeline is an immutable, chainable description of a processing chain over
// a set of source files. Every chaining method returns a new value; a builder
// derived from a shared prefix never observes steps added to a sibling.
//
// Configuration errors detected while chaining are held on the returned value
// and surface from Execute, keeping the chaining API fluent.
type Pipeline struct {
	sources []string
	steps   []*Step
	metrics *metrics.Registry
	err     error
}

// Option configures a pipeline at construction.
type Option func(*Pipeline)

// WithMetrics injects the registry of available metric functions. Without it
// the built-in registry is used.
func WithMetrics(reg *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = reg }
}

// FindScenes starts a pipeline from the given source files: explicit paths or
// glob patterns for images and multi-scene array cubes.
func FindScenes(sources []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources: append([]string(nil), sources...),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// addStep forks the pipeline with one more step. The steps slice is copied
// into a fresh backing array so two forks of the same prefix cannot alias.
func (p *Pipeline) addStep(s *Step) *Pipeline {
	steps := make([]*Step, 0, len(p.steps)+1)
	steps = append(steps, p.steps...)
	steps = append(steps, s)
	return &Pipeline{sources: p.sources, steps: steps, metrics: p.metrics, err: p.err}
}

// fail forks the pipeline carrying a configuration error. The first error
// wins; later chain calls keep it.
func (p *Pipeline) fail(err error) *Pipeline {
	if p.err != nil {
		err = p.err
	}
	return &Pipeline{sources: p.sources, steps: p.steps, metrics: p.metrics, err: err}
}

// Err returns the configuration error recorded while chaining, if any.
func (p *Pipeline) Err() error { return p.err }

// Steps returns the accumulated step descriptors.
func (p *Pipeline) Steps() []*Step {
	return append([]*Step(nil), p.steps...)
}

// Mask appends a cloud-mask step applying transform fn with the given
// parameters to every scene. The transform must return a boolean field.
func (p *Pipeline) Mask(fn Transform, params ...Param) *Pipeline {
	if fn.Fn == nil {
		return p.fail(fmt.Errorf("mask: shorthand transforms are not implemented; pass a transform function"))
	}
	if fn.Name == "" {
		return p.fail(fmt.Errorf("mask: transform must be named, its name is part of the cache identity"))
	}
	return p.addStep(&Step{Kind: KindMask, Transform: &fn, Params: params})
}

// Tile appends a sliding-window tiling step over every scene's 2-D field.
func (p *Pipeline) Tile(opts TileOptions) *Pipeline {
	params, err := opts.params()
	if err != nil {
		return p.fail(err)
	}
	return p.addStep(&Step{Kind: KindTile, Params: params})
}

// ComputeMetrics appends one metric step per requested name. Unknown names
// fail the pipeline immediately, listing the available registry.
func (p *Pipeline) ComputeMetrics(names []string) *Pipeline {
	if len(names) == 0 {
		return p.fail(fmt.Errorf("compute_metrics: no metrics requested"))
	}
	if missing := p.metrics.Missing(names); len(missing) > 0 {
		return p.fail(fmt.Errorf(
			"compute_metrics: unknown metrics [%s]; available metrics are [%s]",
			strings.Join(missing, ", "), strings.Join(p.metrics.Names(), ", ")))
	}
	return p.addStep(&Step{Kind: KindMetrics, Params: Params{P("metrics", names)}})
}
