package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/executor"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/scene"
)

// Options configures a pipeline execution.
type Options struct {
	// Workers is the size of the worker pool. Zero means serial execution.
	Workers int
	// Debug requires serial execution so node failures surface one at a
	// time in deterministic order.
	Debug bool
	// Clean removes the derived scene directories before running. Use it
	// while transform functions are still being edited: the cache is
	// parameter-addressed and cannot see implementation changes.
	Clean bool
}

// Result is what a pipeline execution produces: the merged aggregate and the
// final-step output paths it was merged from. The path set identifies the
// pipeline configuration independently of the computed values.
type Result struct {
	Merged  field.Data
	Outputs []string
}

// Execute expands the pipeline into a task graph, runs it, and merges the
// final per-scene outputs into one aggregate.
func (p *Pipeline) Execute(ctx context.Context, opts Options) (*Result, error) {
	if p.err != nil {
		return nil, p.err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if opts.Debug && workers > 1 {
		return nil, fmt.Errorf("debugging is only possible when executing in serial mode")
	}

	logger := ctxlog.FromContext(ctx)

	if opts.Clean {
		if err := p.clean(ctx); err != nil {
			return nil, err
		}
	}

	scenes, err := scene.Extract(ctx, p.sources)
	if err != nil {
		return nil, err
	}
	if scenes.Len() == 0 {
		return nil, fmt.Errorf("no scenes found")
	}
	if err := writeSceneDBs(scenes); err != nil {
		return nil, err
	}
	logger.Info("Scenes extracted.", "count", scenes.Len())

	frontier, nodes := p.expand(scenes)

	graph := executor.NewGraph()
	for _, n := range nodes {
		task := n.Run
		if _, err := graph.AddNode(n.OutputPath(), task); err != nil {
			return nil, err
		}
	}
	for _, n := range nodes {
		if n.Parent != nil {
			if err := graph.AddEdge(n.Parent.OutputPath(), n.OutputPath()); err != nil {
				return nil, err
			}
		}
	}
	if err := graph.Finalize(); err != nil {
		return nil, err
	}

	exec, err := executor.New(graph, workers)
	if err != nil {
		return nil, err
	}
	logger.Info("Executing pipeline.", "tasks", len(nodes), "workers", workers)
	if err := exec.Run(ctx); err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(frontier))
	for _, n := range frontier {
		outputs = append(outputs, n.OutputPath())
	}
	merged, err := mergeOutputs(outputs)
	if err != nil {
		return nil, err
	}
	return &Result{Merged: merged, Outputs: outputs}, nil
}

// expand builds one task node per (step, scene), chaining each node onto the
// previous node of the same scene. A metrics shorthand step multiplies the
// frontier by the number of requested metrics. It returns the final frontier
// and every created node.
//
// The frontier starts as one sentinel node per scene (no step, representing
// the extracted artifact); sentinels are excluded from the returned node set.
func (p *Pipeline) expand(scenes *scene.Registry) (frontier []*Node, all []*Node) {
	for _, s := range scenes.Scenes() {
		frontier = append(frontier, &Node{Scene: s, metrics: p.metrics})
	}

	for _, step := range p.steps {
		next := make([]*Node, 0, len(frontier))
		for _, parent := range frontier {
			link := parent
			if link.Step == nil {
				// sentinel: first real step reads the scene artifact
				link = nil
			}
			if step.Kind == KindMetrics {
				names, _ := step.Params.Get("metrics")
				for _, metric := range names.([]string) {
					child := &Node{
						Step:    &Step{Kind: KindMetric, Params: Params{P("metric", metric)}},
						Parent:  link,
						Scene:   parent.Scene,
						metrics: p.metrics,
					}
					next = append(next, child)
					all = append(all, child)
				}
				continue
			}
			child := &Node{Step: step, Parent: link, Scene: parent.Scene, metrics: p.metrics}
			next = append(next, child)
			all = append(all, child)
		}
		frontier = next
	}
	return frontier, all
}

// clean removes the derived scene directory next to each source location.
func (p *Pipeline) clean(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	seen := map[string]bool{}
	for _, src := range p.sources {
		dir := filepath.Join(filepath.Dir(src), scene.SubDir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		logger.Info("Removing derived scene directory.", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("cleaning %s: %w", dir, err)
		}
	}
	return nil
}

// writeSceneDBs records the scene-ID database next to each group of
// extracted scenes.
func writeSceneDBs(scenes *scene.Registry) error {
	byDir := map[string]*scene.Registry{}
	var order []string
	for _, s := range scenes.Scenes() {
		dir := filepath.Dir(s.Path)
		reg, ok := byDir[dir]
		if !ok {
			reg = scene.NewRegistry()
			byDir[dir] = reg
			order = append(order, dir)
		}
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	for _, dir := range order {
		if _, err := scene.WriteDB(dir, byDir[dir]); err != nil {
			return err
		}
	}
	return nil
}
