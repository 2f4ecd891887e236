package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/config"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	model  *config.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and a loaded
// pipeline definition.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline definition: %w", err)
	}
	logger.Debug("Pipeline definition loaded and translated into unified model.")

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		model:  model,
	}, nil
}

// Model returns the loaded pipeline definition. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
