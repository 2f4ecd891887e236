package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/metrics"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/scene"
)

// Node is the unit of work: one step applied to one scene's current artifact.
// Nodes with the same parent and step derive the same output path, which is
// the sole caching key.
type Node struct {
	Step   *Step
	Parent *Node
	Scene  scene.Scene

	metrics *metrics.Registry
}

// parentPath is the artifact the node reads. The chain bottoms out at the
// scene's extracted artifact.
func (n *Node) parentPath() string {
	if n.Parent == nil {
		return n.Scene.Path
	}
	return n.Parent.OutputPath()
}

// OutputPath composes the parent artifact's directory, the step identifier as
// a subdirectory, and the parent's filename. The directory depth therefore
// equals the pipeline length, and the layout is the cache key space. A
// sentinel node (no step) resolves to the scene artifact itself.
func (n *Node) OutputPath() string {
	if n.Step == nil {
		return n.Scene.Path
	}
	parent := n.parentPath()
	return filepath.Join(filepath.Dir(parent), n.Step.Identifier(), filepath.Base(parent))
}

// Cached reports whether the node's output already exists on disk.
func (n *Node) Cached() bool {
	_, err := os.Stat(n.OutputPath())
	return err == nil
}

// Run executes the node: load the parent artifact, stamp scene provenance,
// dispatch on the step kind and persist the result. A node whose output
// already exists is skipped entirely.
func (n *Node) Run(ctx context.Context) error {
	outPath := n.OutputPath()
	logger := ctxlog.FromContext(ctx).With("sceneID", n.Scene.ID, "step", n.Step.Identifier())

	if n.Cached() {
		logger.Debug("Output exists, skipping node.", "path", outPath)
		return nil
	}

	data, err := field.Load(n.parentPath())
	if err != nil {
		return err
	}
	// propagate provenance: the directory hierarchy encodes the scene only
	// implicitly, downstream steps and the merger read it from here
	data.SetAttr("scene_id", n.Scene.ID)

	var result field.Data
	switch n.Step.Kind {
	case KindMask:
		result, err = n.runMask(data)
	case KindMetric:
		result, err = n.runMetric(data)
	case KindTile:
		result, err = n.runTile(data)
	default:
		err = fmt.Errorf("step kind %q is not implemented", n.Step.Kind)
	}
	if err != nil {
		return fmt.Errorf("scene %s, step %s: %w", n.Scene.ID, n.Step.Identifier(), err)
	}

	if err := field.Save(outPath, result); err != nil {
		return err
	}
	logger.Debug("Node output written.", "path", outPath)
	return nil
}

// runMask invokes the step's transform and labels the result as a mask
// artifact, recording the parameters and transform name as metadata.
func (n *Node) runMask(data field.Data) (field.Data, error) {
	out, err := n.Step.Transform.Fn(data, n.Step.Params)
	if err != nil {
		return nil, err
	}
	if !out.IsBool() {
		return nil, fmt.Errorf("mask transform %q returned a %s field; masks must be boolean", n.Step.Transform.Name, out.DType)
	}
	out.Name = "mask"
	for _, p := range n.Step.Params {
		out.SetAttr(p.Name, formatValue(p.Value))
	}
	out.SetAttr("fn", n.Step.Transform.Name)
	if id, ok := data.DataVars()[0].Attr("scene_id"); ok {
		out.SetAttr("scene_id", id)
	}
	return out, nil
}

// runTile applies the sliding-window extraction to the 2-D field.
func (n *Node) runTile(data field.Data) (field.Data, error) {
	f, ok := data.(*field.Field)
	if !ok {
		return nil, fmt.Errorf("tile step expects a single field, got a dataset with variables %v", datasetVarNames(data))
	}
	opts, err := tileOptionsFromParams(n.Step.Params)
	if err != nil {
		return nil, err
	}
	return slidingWindow(f, opts)
}

// tileOptionsFromParams reconstructs TileOptions from the recorded step
// parameters.
func tileOptionsFromParams(params Params) (TileOptions, error) {
	size, err := params.Float("window_size", 0)
	if err != nil {
		return TileOptions{}, err
	}
	stride, err := params.Float("window_stride", 0)
	if err != nil {
		return TileOptions{}, err
	}
	offset, err := params.String("window_offset", "")
	if err != nil {
		return TileOptions{}, err
	}
	return TileOptions{Size: int(size), Stride: int(stride), Offset: offset}, nil
}

func datasetVarNames(data field.Data) []string {
	vars := data.DataVars()
	names := make([]string, 0, len(vars))
	for _, f := range vars {
		names = append(names, f.Name)
	}
	return names
}
