package pipeline

import (
	"fmt"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

// mergeOutputs loads every final-step output and reduces per-scene results
// into one aggregate: outputs are grouped by variable name, each group is
// concatenated along a new scene_id axis, and a single-variable aggregate is
// unwrapped to one named array.
func mergeOutputs(paths []string) (field.Data, error) {
	var order []string
	byName := map[string][]*field.Field{}

	for _, path := range paths {
		data, err := field.Load(path)
		if err != nil {
			return nil, err
		}
		f, ok := data.(*field.Field)
		if !ok {
			return nil, fmt.Errorf("final output %s holds multiple variables; expected one per task", path)
		}
		if _, seen := byName[f.Name]; !seen {
			order = append(order, f.Name)
		}
		byName[f.Name] = append(byName[f.Name], f)
	}

	merged := field.NewDataset()
	for _, name := range order {
		f, err := concatScenes(name, byName[name])
		if err != nil {
			return nil, err
		}
		if err := merged.Add(f); err != nil {
			return nil, err
		}
	}

	if merged.Len() == 1 {
		return merged.DataVars()[0], nil
	}
	return merged, nil
}

// concatScenes stacks per-scene fields along a new leading scene_id axis.
// All inputs must share dims and shape; the scene label comes from the
// provenance attribute stamped during execution.
func concatScenes(name string, fields []*field.Field) (*field.Field, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("merge: no outputs for variable %q", name)
	}

	first := fields[0]
	labels := make([]string, 0, len(fields))
	values := make([]float64, 0, len(fields)*first.Size())
	for _, f := range fields {
		if len(f.Shape) != len(first.Shape) || f.Size() != first.Size() {
			return nil, fmt.Errorf("merge: variable %q has inconsistent shapes %v and %v across scenes", name, first.Shape, f.Shape)
		}
		id, ok := f.Attr("scene_id")
		if !ok {
			return nil, fmt.Errorf("merge: output for variable %q carries no scene_id provenance", name)
		}
		labels = append(labels, id)
		values = append(values, f.Values...)
	}

	dims := append([]string{"scene_id"}, first.Dims...)
	shape := append([]int{len(fields)}, first.Shape...)
	out, err := field.New(name, dims, shape, values)
	if err != nil {
		return nil, err
	}
	out.DType = first.DType
	out.Coords["scene_id"] = field.Coord{Labels: labels}
	for k, c := range first.Coords {
		out.Coords[k] = c
	}
	return out, nil
}
