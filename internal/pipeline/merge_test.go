package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

func writeMetricOutput(t *testing.T, dir, sceneID, name string, v float64) string {
	t.Helper()
	f := field.Scalar(name, v)
	f.SetAttr("scene_id", sceneID)
	path := filepath.Join(dir, sceneID+field.Ext)
	require.NoError(t, field.Save(path, f))
	return path
}

func TestMergeSingleVariable(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeMetricOutput(t, dir, "s1", "cloud_fraction", 0.25),
		writeMetricOutput(t, dir, "s2", "cloud_fraction", 0.50),
		writeMetricOutput(t, dir, "s3", "cloud_fraction", 0.75),
	}

	merged, err := mergeOutputs(paths)
	require.NoError(t, err)

	f, ok := merged.(*field.Field)
	require.True(t, ok, "single-variable aggregate should unwrap to one array")
	assert.Equal(t, "cloud_fraction", f.Name)
	assert.Equal(t, []string{"scene_id"}, f.Dims)
	assert.Equal(t, []float64{0.25, 0.50, 0.75}, f.Values)
	assert.Equal(t, []string{"s1", "s2", "s3"}, f.Coords["scene_id"].Labels)
}

func TestMergeMultipleVariables(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeMetricOutput(t, filepath.Join(dir, "cf"), "s1", "cloud_fraction", 0.25),
		writeMetricOutput(t, filepath.Join(dir, "no"), "s1", "num_objects", 3),
		writeMetricOutput(t, filepath.Join(dir, "cf"), "s2", "cloud_fraction", 0.50),
		writeMetricOutput(t, filepath.Join(dir, "no"), "s2", "num_objects", 1),
	}

	merged, err := mergeOutputs(paths)
	require.NoError(t, err)

	ds, ok := merged.(*field.Dataset)
	require.True(t, ok)
	vars := ds.DataVars()
	require.Len(t, vars, 2)
	assert.Equal(t, "cloud_fraction", vars[0].Name)
	assert.Equal(t, []float64{0.25, 0.50}, vars[0].Values)
	assert.Equal(t, "num_objects", vars[1].Name)
	assert.Equal(t, []float64{3, 1}, vars[1].Values)
	assert.Equal(t, []string{"s1", "s2"}, vars[1].Coords["scene_id"].Labels)
}

func TestMergePreservesNonScalarShape(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, id := range []string{"s1", "s2"} {
		f, err := field.New("cloud_fraction",
			[]string{"y_stride", "x_stride"}, []int{2, 2},
			[]float64{float64(i), 0, 0, 1})
		require.NoError(t, err)
		f.Coords["y_stride"] = field.Coord{Values: []float64{0, 4}}
		f.SetAttr("scene_id", id)
		path := filepath.Join(dir, id+field.Ext)
		require.NoError(t, field.Save(path, f))
		paths = append(paths, path)
	}

	merged, err := mergeOutputs(paths)
	require.NoError(t, err)

	f := merged.(*field.Field)
	assert.Equal(t, []string{"scene_id", "y_stride", "x_stride"}, f.Dims)
	assert.Equal(t, []int{2, 2, 2}, f.Shape)
	assert.Equal(t, []float64{0, 4}, f.Coords["y_stride"].Values)
}

func TestMergeRejectsMissingProvenance(t *testing.T) {
	dir := t.TempDir()
	f := field.Scalar("cloud_fraction", 0.5)
	path := filepath.Join(dir, "anon"+field.Ext)
	require.NoError(t, field.Save(path, f))

	_, err := mergeOutputs([]string{path})
	assert.ErrorContains(t, err, "no scene_id provenance")
}
