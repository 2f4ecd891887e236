package config

import "fmt"

// Step kinds understood by the pipeline assembler.
const (
	StepMask    = "mask"
	StepTile    = "tile"
	StepMetrics = "metrics"
)

// Model is the unified, format-agnostic representation of one pipeline
// definition: where source scenes come from and the ordered steps applied to
// every scene.
type Model struct {
	Sources []string
	Steps   []*Step
}

// Step is the format-agnostic representation of a `step` block. Arguments
// hold evaluated literal values keyed by argument name.
type Step struct {
	Kind      string
	Function  string         // mask transform name, mask steps only
	Metrics   []string       // metric names, metrics steps only
	Arguments map[string]any
}

// Validate checks the structural integrity of the model before assembly.
func (m *Model) Validate() error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("pipeline defines no sources")
	}
	for i, s := range m.Steps {
		switch s.Kind {
		case StepMask:
			if s.Function == "" {
				return fmt.Errorf("step %d (%s): missing function name", i, s.Kind)
			}
		case StepTile:
			// arguments are validated when the tile step is assembled
		case StepMetrics:
			if len(s.Metrics) == 0 {
				return fmt.Errorf("step %d (%s): compute list is empty", i, s.Kind)
			}
		default:
			return fmt.Errorf("step %d: unknown kind %q", i, s.Kind)
		}
	}
	return nil
}
