package pipeline

import "fmt"

// Param is one named step parameter. Values must be scalars or strings so
// they can be serialized into step identifiers.
type Param struct {
	Name  string
	Value any
}

// P is shorthand for constructing a Param.
func P(name string, value any) Param { return Param{Name: name, Value: value} }

// Params is an ordered parameter list. Order matters: it is part of the
// derived step identifier.
type Params []Param

// Get returns the value for name.
func (ps Params) Get(name string) (any, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Float returns the named parameter as a float64, or fallback when absent.
func (ps Params) Float(name string, fallback float64) (float64, error) {
	v, ok := ps.Get(name)
	if !ok {
		return fallback, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("parameter %q: expected a number, got %T", name, v)
	}
}

// String returns the named parameter as a string, or fallback when absent.
func (ps Params) String(name string, fallback string) (string, error) {
	v, ok := ps.Get(name)
	if !ok {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected a string, got %T", name, v)
	}
	return s, nil
}

// without returns a copy of the list with the named parameter removed.
func (ps Params) without(name string) Params {
	out := make(Params, 0, len(ps))
	for _, p := range ps {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

// formatValue renders a parameter value for identifiers and attributes.
func formatValue(v any) string {
	return fmt.Sprintf("%v", v)
}
