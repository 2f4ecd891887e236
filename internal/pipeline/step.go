package pipeline

import (
	"strings"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

// Kind tags the type of transformation a step performs.
type Kind string

const (
	KindMask   Kind = "mask"
	KindTile   Kind = "tile"
	KindMetric Kind = "metric"

	// KindMetrics is the builder-level shorthand holding a list of metric
	// names; graph expansion turns it into one KindMetric node per name so
	// metrics cache and parallelize independently.
	KindMetrics Kind = "metrics"
)

// idSep joins identifier segments and serialized parameters. It is part of
// the on-disk cache key space and must never change.
const idSep = "__"

// TransformFunc derives a new field from a scene's current artifact.
type TransformFunc func(data field.Data, params Params) (*field.Field, error)

// Transform is a named transformation function. The name participates in the
// step identifier, so renaming a transform invalidates its cached outputs.
type Transform struct {
	Name string
	Fn   TransformFunc
}

// Step is an immutable description of one transformation stage. It is shared
// by reference across every scene it applies to.
type Step struct {
	Kind      Kind
	Transform *Transform
	Params    Params
}

// Identifier derives the deterministic cache key segment for the step.
//
// The derivation starts with the kind; if a parameter named after the kind
// exists its value is appended directly (so a metric step reads
// "metric__iorg" rather than "metric__metric=iorg"); the remaining parameters
// are serialized as key=value pairs in declaration order and appended as one
// segment; a transform contributes its name last.
func (s *Step) Identifier() string {
	parts := []string{string(s.Kind)}

	params := s.Params
	if v, ok := params.Get(string(s.Kind)); ok {
		parts = append(parts, formatValue(v))
		params = params.without(string(s.Kind))
	}

	if len(params) > 0 {
		pairs := make([]string, 0, len(params))
		for _, p := range params {
			pairs = append(pairs, p.Name+"="+formatValue(p.Value))
		}
		parts = append(parts, strings.Join(pairs, idSep))
	}

	if s.Transform != nil {
		parts = append(parts, s.Transform.Name)
	}

	return strings.Join(parts, idSep)
}
