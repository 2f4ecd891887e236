package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/metrics"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/scene"
)

func writeArtifact(t *testing.T, path string, f *field.Field) {
	t.Helper()
	require.NoError(t, field.Save(path, f))
}

func boolField(t *testing.T, values ...float64) *field.Field {
	t.Helper()
	f, err := field.New("mask", []string{"y", "x"}, []int{2, len(values) / 2}, values)
	require.NoError(t, err)
	return f.AsBool()
}

func TestOutputPathComposition(t *testing.T) {
	s := scene.Scene{ID: "scene_a", Path: "/data/cloudmetrics/scene_a.mpk"}
	maskStep := &Step{Kind: KindMask, Transform: &Transform{Name: "fn"}, Params: Params{P("t", 0.2)}}
	metricStep := &Step{Kind: KindMetric, Params: Params{P("metric", "cloud_fraction")}}

	maskNode := &Node{Step: maskStep, Scene: s}
	assert.Equal(t,
		"/data/cloudmetrics/mask__t=0.2__fn/scene_a.mpk",
		maskNode.OutputPath())

	metricNode := &Node{Step: metricStep, Parent: maskNode, Scene: s}
	assert.Equal(t,
		"/data/cloudmetrics/mask__t=0.2__fn/metric__cloud_fraction/scene_a.mpk",
		metricNode.OutputPath())
}

func TestEqualStepsYieldEqualOutputRefs(t *testing.T) {
	s := scene.Scene{ID: "a", Path: "/d/cloudmetrics/a.mpk"}
	mk := func() *Node {
		return &Node{
			Step:  &Step{Kind: KindMask, Transform: &Transform{Name: "fn"}, Params: Params{P("x", 1)}},
			Scene: s,
		}
	}
	assert.Equal(t, mk().OutputPath(), mk().OutputPath())
}

func TestNodeRunMask(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mpk")
	raw, err := field.New("image", []string{"y", "x"}, []int{2, 2}, []float64{0, 200, 10, 250})
	require.NoError(t, err)
	writeArtifact(t, src, raw)

	tr := Transform{
		Name: "gt_hundred",
		Fn: func(data field.Data, _ Params) (*field.Field, error) {
			f := data.DataVars()[0].Copy()
			for i, v := range f.Values {
				if v > 100 {
					f.Values[i] = 1
				} else {
					f.Values[i] = 0
				}
			}
			return f.AsBool(), nil
		},
	}
	n := &Node{
		Step:  &Step{Kind: KindMask, Transform: &tr, Params: Params{P("threshold", 100)}},
		Scene: scene.Scene{ID: "a", Path: src},
	}

	require.NoError(t, n.Run(context.Background()))

	data, err := field.Load(n.OutputPath())
	require.NoError(t, err)
	out := data.(*field.Field)
	assert.Equal(t, "mask", out.Name)
	assert.True(t, out.IsBool())
	assert.Equal(t, []float64{0, 1, 0, 1}, out.Values)

	fn, _ := out.Attr("fn")
	assert.Equal(t, "gt_hundred", fn)
	th, _ := out.Attr("threshold")
	assert.Equal(t, "100", th)
	id, _ := out.Attr("scene_id")
	assert.Equal(t, "a", id)
}

func TestNodeRunMaskRejectsNonBooleanResult(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mpk")
	raw, err := field.New("image", []string{"y", "x"}, []int{1, 2}, []float64{1, 2})
	require.NoError(t, err)
	writeArtifact(t, src, raw)

	tr := Transform{
		Name: "identity",
		Fn: func(data field.Data, _ Params) (*field.Field, error) {
			return data.DataVars()[0], nil
		},
	}
	n := &Node{Step: &Step{Kind: KindMask, Transform: &tr}, Scene: scene.Scene{ID: "a", Path: src}}
	err = n.Run(context.Background())
	assert.ErrorContains(t, err, "masks must be boolean")
}

func TestNodeRunMetricValidation(t *testing.T) {
	dir := t.TempDir()
	reg := metrics.Default()

	t.Run("non-normalized float input is rejected", func(t *testing.T) {
		src := filepath.Join(dir, "bad.mpk")
		f, err := field.New("cloud", []string{"y", "x"}, []int{1, 2}, []float64{0.0, 0.5})
		require.NoError(t, err)
		writeArtifact(t, src, f)

		n := &Node{
			Step:    &Step{Kind: KindMetric, Params: Params{P("metric", "cloud_fraction")}},
			Scene:   scene.Scene{ID: "bad", Path: src},
			metrics: reg,
		}
		err = n.Run(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "cloud=[0:0.5]")
		assert.ErrorContains(t, err, "forgot to apply a mask")
	})

	t.Run("normalized float input is auto-cast", func(t *testing.T) {
		src := filepath.Join(dir, "norm.mpk")
		f, err := field.New("cloud", []string{"y", "x"}, []int{1, 4}, []float64{0, 1, 1, 0})
		require.NoError(t, err)
		writeArtifact(t, src, f)

		n := &Node{
			Step:    &Step{Kind: KindMetric, Params: Params{P("metric", "cloud_fraction")}},
			Scene:   scene.Scene{ID: "norm", Path: src},
			metrics: reg,
		}
		require.NoError(t, n.Run(context.Background()))

		data, err := field.Load(n.OutputPath())
		require.NoError(t, err)
		out := data.(*field.Field)
		assert.Equal(t, "cloud_fraction", out.Name)
		assert.Equal(t, []float64{0.5}, out.Values)
	})

	t.Run("dataset input names its variables", func(t *testing.T) {
		src := filepath.Join(dir, "ds.mpk")
		ds := field.NewDataset()
		require.NoError(t, ds.Add(field.Scalar("alpha", 1)))
		require.NoError(t, ds.Add(field.Scalar("beta", 2)))
		require.NoError(t, field.Save(src, ds))

		n := &Node{
			Step:    &Step{Kind: KindMetric, Params: Params{P("metric", "cloud_fraction")}},
			Scene:   scene.Scene{ID: "ds", Path: src},
			metrics: reg,
		}
		err := n.Run(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "add a mask step")
		assert.ErrorContains(t, err, "alpha, beta")
	})
}

func TestNodeRunMetricPerWindow(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tiled.mpk")

	// 2x1 windows of 2x2 each: first window fully cloudy, second clear
	tiled, err := field.New("mask",
		[]string{"y_stride", "x_stride", "y_window", "x_window"},
		[]int{2, 1, 2, 2},
		[]float64{1, 1, 1, 1, 0, 0, 0, 0})
	require.NoError(t, err)
	tiled.DType = field.Bool
	tiled.Attrs["x_dim"] = "y_stride"
	tiled.Attrs["y_dim"] = "x_stride"
	writeArtifact(t, src, tiled)

	n := &Node{
		Step:    &Step{Kind: KindMetric, Params: Params{P("metric", "cloud_fraction")}},
		Scene:   scene.Scene{ID: "tiled", Path: src},
		metrics: metrics.Default(),
	}
	require.NoError(t, n.Run(context.Background()))

	data, err := field.Load(n.OutputPath())
	require.NoError(t, err)
	out := data.(*field.Field)
	assert.Equal(t, []string{"y_stride", "x_stride"}, out.Dims)
	assert.Equal(t, []int{2, 1}, out.Shape)
	assert.Equal(t, []float64{1, 0}, out.Values)
}

func TestNodeRunSkipsWhenOutputExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mpk")
	writeArtifact(t, src, boolField(t, 1, 0, 0, 1))

	calls := 0
	tr := Transform{
		Name: "counting",
		Fn: func(data field.Data, _ Params) (*field.Field, error) {
			calls++
			return data.DataVars()[0].AsBool(), nil
		},
	}
	n := &Node{Step: &Step{Kind: KindMask, Transform: &tr}, Scene: scene.Scene{ID: "a", Path: src}}

	require.NoError(t, n.Run(context.Background()))
	require.NoError(t, n.Run(context.Background()))
	assert.Equal(t, 1, calls, "second run must hit the existence cache")
}

func TestNodeRunUnknownKind(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mpk")
	writeArtifact(t, src, boolField(t, 1, 0, 0, 1))

	n := &Node{Step: &Step{Kind: Kind("reproject")}, Scene: scene.Scene{ID: "a", Path: src}}
	err := n.Run(context.Background())
	assert.ErrorContains(t, err, `"reproject" is not implemented`)
}

func TestNodeRunMissingParent(t *testing.T) {
	n := &Node{
		Step:  &Step{Kind: KindMask, Transform: &Transform{Name: "fn", Fn: passthroughMask().Fn}},
		Scene: scene.Scene{ID: "a", Path: filepath.Join(t.TempDir(), "missing.mpk")},
	}
	err := n.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
