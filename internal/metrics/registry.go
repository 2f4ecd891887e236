// Package metrics holds the registry of cloud-mask metric functions. The
// registry is an explicit value injected into the pipeline, so the set of
// available metrics is first-class and testable rather than discovered from
// a global module.
package metrics

import (
	"fmt"
	"sort"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

// Func computes one scalar metric from a boolean cloud mask.
type Func func(mask *field.Field) (float64, error)

// Registry maps metric names to their implementations.
type Registry struct {
	fns map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: map[string]Func{}}
}

// Default returns a registry populated with the built-in metrics.
func Default() *Registry {
	r := NewRegistry()
	for name, fn := range builtins {
		// builtins are maintained in this package, a collision is a bug
		if err := r.Register(name, fn); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a named metric. Re-registering a name is an error.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("metric name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("metric %q: nil function", name)
	}
	if _, exists := r.fns[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.fns[name] = fn
	return nil
}

// Lookup returns the named metric function.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns the sorted list of available metric names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns, in input order, the requested names that are not
// registered.
func (r *Registry) Missing(requested []string) []string {
	var missing []string
	for _, name := range requested {
		if _, ok := r.fns[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
