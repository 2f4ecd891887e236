package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/config"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/masks"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/pipeline"
)

// assemblePipeline turns the loaded definition into an executable pipeline,
// resolving mask function names against the registered transforms.
func assemblePipeline(model *config.Model) (*pipeline.Pipeline, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	p := pipeline.FindScenes(model.Sources)
	for _, step := range model.Steps {
		switch step.Kind {
		case config.StepMask:
			tr, ok := masks.Lookup(step.Function)
			if !ok {
				return nil, fmt.Errorf("unknown mask function %q; available functions: %s",
					step.Function, strings.Join(masks.Names(), ", "))
			}
			p = p.Mask(tr, sortedParams(step.Arguments)...)
		case config.StepTile:
			opts, err := tileOptions(step.Arguments)
			if err != nil {
				return nil, err
			}
			p = p.Tile(opts)
		case config.StepMetrics:
			p = p.ComputeMetrics(step.Metrics)
		default:
			return nil, fmt.Errorf("unknown step kind %q", step.Kind)
		}
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// sortedParams flattens an argument map into parameters in name order, so a
// definition always derives the same task identifiers.
func sortedParams(args map[string]any) []pipeline.Param {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]pipeline.Param, 0, len(names))
	for _, name := range names {
		params = append(params, pipeline.P(name, args[name]))
	}
	return params
}

// tileOptions maps tile step arguments onto the tiling configuration.
func tileOptions(args map[string]any) (pipeline.TileOptions, error) {
	var opts pipeline.TileOptions
	for name, v := range args {
		switch name {
		case "window_size":
			f, ok := v.(float64)
			if !ok {
				return opts, fmt.Errorf("tile: window_size must be a number, got %T", v)
			}
			opts.Size = int(f)
		case "window_stride":
			f, ok := v.(float64)
			if !ok {
				return opts, fmt.Errorf("tile: window_stride must be a number, got %T", v)
			}
			opts.Stride = int(f)
		case "window_offset":
			s, ok := v.(string)
			if !ok {
				return opts, fmt.Errorf("tile: window_offset must be a string, got %T", v)
			}
			opts.Offset = s
		default:
			return opts, fmt.Errorf("tile: unknown argument %q", name)
		}
	}
	return opts, nil
}
