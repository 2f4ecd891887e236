package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

const (
	// SubDir is the directory, next to the source files, that holds all
	// extracted scenes and every derived artifact below them.
	SubDir = "cloudmetrics"

	// DBFilename is the scene-ID database written after extraction.
	DBFilename = "scene_ids.yml"

	// TimeLayout formats a cube's time coordinate into a scene ID component.
	TimeLayout = "200602011504"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Extract materializes one artifact per scene from the given source files and
// returns the registry of discovered scenes. Sources may be explicit paths or
// glob patterns.
func Extract(ctx context.Context, sources []string) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := expandSources(sources)
	if err != nil {
		return nil, err
	}
	logger.Debug("Extracting scenes from source files.", "sources", len(paths))

	scenes := NewRegistry()
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case imageExts[ext]:
			s, err := extractImageScene(path)
			if err != nil {
				return nil, err
			}
			if err := scenes.Register(s); err != nil {
				return nil, err
			}
		case ext == field.Ext:
			cubeScenes, err := extractCubeScenes(path)
			if err != nil {
				return nil, err
			}
			if err := scenes.Merge(cubeScenes); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported source file %s: extension %q is neither an image nor an array cube", path, ext)
		}
	}

	logger.Debug("Scene extraction complete.", "scenes", scenes.Len())
	return scenes, nil
}

// expandSources resolves glob patterns and returns a deterministic file list.
func expandSources(sources []string) ([]string, error) {
	var paths []string
	for _, src := range sources {
		if !strings.ContainsAny(src, "*?[") {
			paths = append(paths, src)
			continue
		}
		matches, err := filepath.Glob(src)
		if err != nil {
			return nil, fmt.Errorf("invalid source pattern %q: %w", src, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("source pattern %q matched no files", src)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

// extractCubeScenes slices a multi-scene array cube into per-scene artifacts.
// The cube must carry either a scene_id label coordinate or a time coordinate
// (seconds since the Unix epoch) on a matching axis.
func extractCubeScenes(path string) (*Registry, error) {
	data, err := field.Load(path)
	if err != nil {
		return nil, err
	}
	cube, ok := data.(*field.Field)
	if !ok {
		return nil, fmt.Errorf("source cube %s holds multiple variables; expected a single array", path)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sceneDir := filepath.Join(filepath.Dir(path), SubDir)
	scenes := NewRegistry()

	register := func(id string, f *field.Field) error {
		outPath := filepath.Join(sceneDir, id+field.Ext)
		if err := field.Save(outPath, f); err != nil {
			return err
		}
		return scenes.Register(Scene{ID: id, Path: outPath})
	}

	if coord, ok := cube.Coords["scene_id"]; ok && len(coord.Labels) > 0 {
		for i, id := range coord.Labels {
			f, err := cube.SelectIndex("scene_id", i)
			if err != nil {
				return nil, fmt.Errorf("slicing %s: %w", path, err)
			}
			if err := register(id, f); err != nil {
				return nil, err
			}
		}
		return scenes, nil
	}

	if coord, ok := cube.Coords["time"]; ok && len(coord.Values) > 0 {
		for i, ts := range coord.Values {
			f, err := cube.SelectIndex("time", i)
			if err != nil {
				return nil, fmt.Errorf("slicing %s: %w", path, err)
			}
			id := fmt.Sprintf("%s__%s", stem, time.Unix(int64(ts), 0).UTC().Format(TimeLayout))
			if err := register(id, f); err != nil {
				return nil, err
			}
		}
		return scenes, nil
	}

	return nil, fmt.Errorf("source cube %s must define either a scene_id or time 1D coordinate", path)
}
