package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/config"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL pipeline definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is the top-level structure decoded from every file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Steps     []*stepBlock     `hcl:"step,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// pipelineBlock declares where the source scenes come from.
type pipelineBlock struct {
	Source []string `hcl:"source"`
}

// stepBlock is one pipeline step. The kind label selects the step type and
// the body holds its arguments.
type stepBlock struct {
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses all HCL files under the given path and merges them into one
// model. Files are processed in lexical order, and steps keep their
// declaration order within each file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found at %s", path)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Pipelines {
			model.Sources = append(model.Sources, p.Source...)
		}
		for _, s := range root.Steps {
			step, err := l.translateStep(s)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Steps = append(model.Steps, step)
		}
	}

	logger.Debug("HCL loading complete.", "sources", len(model.Sources), "steps", len(model.Steps))
	return model, nil
}

// translateStep converts an HCL step block into the agnostic model. All
// arguments must be literal values.
func (l *Loader) translateStep(s *stepBlock) (*config.Step, error) {
	attrs, diags := s.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("step %q: %w", s.Kind, diags)
	}

	step := &config.Step{Kind: s.Kind, Arguments: map[string]any{}}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q, argument %q: %w", s.Kind, name, diags)
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("step %q, argument %q: %w", s.Kind, name, err)
		}
		step.Arguments[name] = goVal
	}

	// pull recognized structural arguments out of the generic set
	switch s.Kind {
	case config.StepMask:
		fn, ok := step.Arguments["function"].(string)
		if !ok {
			return nil, fmt.Errorf("step %q: a string 'function' argument is required", s.Kind)
		}
		step.Function = fn
		delete(step.Arguments, "function")
	case config.StepMetrics:
		names, err := stringList(step.Arguments["compute"])
		if err != nil {
			return nil, fmt.Errorf("step %q: 'compute' must be a list of metric names: %w", s.Kind, err)
		}
		step.Metrics = names
		delete(step.Arguments, "compute")
	}
	return step, nil
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("got %T", v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %v is not a string", item)
		}
		out = append(out, s)
	}
	return out, nil
}
