package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/config"
)

func writePipelineFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSingleFile(t *testing.T) {
	path := writePipelineFile(t, t.TempDir(), "pipeline.hcl", `
pipeline {
  source = ["data/*.png"]
}

step "mask" {
  function            = "greyscale_threshold"
  greyscale_threshold = 0.3
}

step "tile" {
  window_size   = 96
  window_offset = "stride_center"
}

step "metrics" {
  compute = ["cloud_fraction", "num_objects"]
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, model.Validate())

	assert.Equal(t, []string{"data/*.png"}, model.Sources)
	require.Len(t, model.Steps, 3)

	mask := model.Steps[0]
	assert.Equal(t, config.StepMask, mask.Kind)
	assert.Equal(t, "greyscale_threshold", mask.Function)
	assert.Equal(t, map[string]any{"greyscale_threshold": 0.3}, mask.Arguments)

	tile := model.Steps[1]
	assert.Equal(t, config.StepTile, tile.Kind)
	assert.Equal(t, 96.0, tile.Arguments["window_size"])
	assert.Equal(t, "stride_center", tile.Arguments["window_offset"])

	metrics := model.Steps[2]
	assert.Equal(t, config.StepMetrics, metrics.Kind)
	assert.Equal(t, []string{"cloud_fraction", "num_objects"}, metrics.Metrics)
	assert.Empty(t, metrics.Arguments)
}

func TestLoadDirectoryMergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writePipelineFile(t, dir, "00_sources.hcl", `
pipeline {
  source = ["a/*.png", "b/*.png"]
}
`)
	writePipelineFile(t, dir, "10_steps.hcl", `
step "mask" {
  function = "greyscale_threshold"
}
`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/*.png", "b/*.png"}, model.Sources)
	require.Len(t, model.Steps, 1)
	assert.Equal(t, config.StepMask, model.Steps[0].Kind)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing path", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(dir, "nope"))
		assert.ErrorContains(t, err, "error accessing path")
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writePipelineFile(t, dir, "broken.hcl", `step "mask" {`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("mask without function", func(t *testing.T) {
		path := writePipelineFile(t, dir, "nofn.hcl", `
step "mask" {
  greyscale_threshold = 0.3
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.ErrorContains(t, err, "'function' argument is required")
	})

	t.Run("metrics compute not a list", func(t *testing.T) {
		path := writePipelineFile(t, dir, "badcompute.hcl", `
step "metrics" {
  compute = "cloud_fraction"
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.ErrorContains(t, err, "'compute' must be a list")
	})

	t.Run("non-literal argument", func(t *testing.T) {
		path := writePipelineFile(t, dir, "varref.hcl", `
step "mask" {
  function  = "greyscale_threshold"
  threshold = var.threshold
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.Error(t, err)
	})
}
