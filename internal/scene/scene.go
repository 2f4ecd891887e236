package scene

import (
	"errors"
	"fmt"
)

// ErrSceneExists is returned when a scene ID is registered twice. Duplicate
// IDs would silently alias two scenes onto one artifact path, so registration
// refuses rather than overwrites.
var ErrSceneExists = errors.New("scene id already registered")

// Scene is one independently processable unit of source data: an ID unique
// within the run and the path of its persisted artifact.
type Scene struct {
	ID   string
	Path string
}

// Registry is an insertion-ordered scene collection that never replaces an
// existing entry.
type Registry struct {
	ids    []string
	scenes map[string]Scene
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{scenes: map[string]Scene{}}
}

// Register adds a scene. It fails with ErrSceneExists if the ID is taken.
func (r *Registry) Register(s Scene) error {
	if _, exists := r.scenes[s.ID]; exists {
		return fmt.Errorf("%w: %q", ErrSceneExists, s.ID)
	}
	r.ids = append(r.ids, s.ID)
	r.scenes[s.ID] = s
	return nil
}

// Merge registers every scene from other, preserving its insertion order.
func (r *Registry) Merge(other *Registry) error {
	for _, s := range other.Scenes() {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Get looks up a scene by ID.
func (r *Registry) Get(id string) (Scene, bool) {
	s, ok := r.scenes[id]
	return s, ok
}

// Scenes returns all scenes in insertion order.
func (r *Registry) Scenes() []Scene {
	out := make([]Scene, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.scenes[id])
	}
	return out
}

// Len returns the number of registered scenes.
func (r *Registry) Len() int { return len(r.ids) }
