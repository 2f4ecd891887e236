package app

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/pipeline"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/scene"
)

// Run executes the loaded pipeline and writes the merged result. It returns
// the path of the result artifact.
func (a *App) Run(ctx context.Context) (string, error) {
	logger := a.logger.With("runID", uuid.NewString())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	p, err := assemblePipeline(a.model)
	if err != nil {
		return "", fmt.Errorf("failed to assemble pipeline: %w", err)
	}
	logger.Info("Pipeline assembled.", "steps", len(a.model.Steps), "sources", len(a.model.Sources))

	res, err := p.Execute(ctx, pipeline.Options{
		Workers: a.cfg.WorkerCount,
		Debug:   a.cfg.Debug,
		Clean:   a.cfg.Clean,
	})
	if err != nil {
		return "", fmt.Errorf("execution failed: %w", err)
	}

	resultPath, err := a.writeResult(res)
	if err != nil {
		return "", err
	}
	logger.Info("Merged result written.", "path", resultPath)
	fmt.Fprintln(a.outW, resultPath)
	return resultPath, nil
}

// writeResult persists the merged aggregate next to the extracted scenes.
// The filename digests the sorted final-step output paths, so the name is a
// stable function of the pipeline configuration and re-runs overwrite one
// file instead of accumulating a file per run.
func (a *App) writeResult(res *pipeline.Result) (string, error) {
	payload, err := field.Marshal(res.Merged)
	if err != nil {
		return "", fmt.Errorf("encoding merged result: %w", err)
	}

	dir := filepath.Join(filepath.Dir(a.model.Sources[0]), scene.SubDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	outputs := append([]string(nil), res.Outputs...)
	sort.Strings(outputs)
	digest := md5.Sum([]byte(strings.Join(outputs, "__")))

	path := filepath.Join(dir, fmt.Sprintf("data-%x%s", digest, field.Ext))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
