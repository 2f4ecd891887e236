package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteDB persists the scene-ID database (scene ID -> artifact path) as YAML
// into the given scene directory. The database is a run record for users and
// downstream tooling; the pipeline itself always re-derives scenes from the
// sources.
func WriteDB(sceneDir string, scenes *Registry) (string, error) {
	entries := make(map[string]string, scenes.Len())
	for _, s := range scenes.Scenes() {
		entries[s.ID] = s.Path
	}

	payload, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encoding scene db: %w", err)
	}

	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", sceneDir, err)
	}
	path := filepath.Join(sceneDir, DBFilename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing scene db: %w", err)
	}
	return path, nil
}

// ReadDB loads a previously written scene-ID database.
func ReadDB(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene db: %w", err)
	}
	entries := map[string]string{}
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding scene db %s: %w", path, err)
	}
	return entries, nil
}
