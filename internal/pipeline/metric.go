package pipeline

import (
	"fmt"
	"strings"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

// runMetric validates that the upstream artifact is mask-like, then applies
// the requested metric either once over the whole field or per window when
// the field carries tiling stride axes.
func (n *Node) runMetric(data field.Data) (field.Data, error) {
	f, ok := data.(*field.Field)
	if !ok {
		return nil, fmt.Errorf(
			"before computing metrics you need to add a mask step to the pipeline;"+
				" currently trying to compute metrics on a dataset with variables: %s",
			strings.Join(datasetVarNames(data), ", "))
	}

	mask, err := asCloudMask(f)
	if err != nil {
		return nil, err
	}

	name, err := n.Step.Params.String("metric", "")
	if err != nil {
		return nil, err
	}
	fn, ok := n.metrics.Lookup(name)
	if !ok {
		// ComputeMetrics validates at chain time; reaching this means the
		// registry changed between build and run
		return nil, fmt.Errorf("metric %q is not registered", name)
	}

	xDim, hasX := mask.Attr("x_dim")
	yDim, hasY := mask.Attr("y_dim")
	if hasX && hasY {
		return metricPerWindow(mask, name, fn, xDim, yDim)
	}

	v, err := fn(mask)
	if err != nil {
		return nil, err
	}
	out := field.Scalar(name, v)
	if id, ok := mask.Attr("scene_id"); ok {
		out.SetAttr("scene_id", id)
	}
	return out, nil
}

// asCloudMask accepts a boolean field as-is and auto-casts a float field
// whose minimum and maximum are exactly 0.0 and 1.0. Anything else is a
// validation error naming the field and its range.
func asCloudMask(f *field.Field) (*field.Field, error) {
	if f.IsBool() {
		return f, nil
	}
	vMin, vMax := f.Min(), f.Max()
	if vMin != 0.0 || vMax != 1.0 {
		return nil, fmt.Errorf(
			"the field you're trying to use as a mask appears to not only contain"+
				" 0.0 and 1.0 values: %s=[%v:%v]; maybe you forgot to apply a mask method?",
			f.Name, vMin, vMax)
	}
	return f.AsBool(), nil
}

// metricPerWindow applies the metric to each window of a tiled field,
// reassembling the results on the stride axes.
func metricPerWindow(mask *field.Field, name string, fn func(*field.Field) (float64, error), xDim, yDim string) (*field.Field, error) {
	xAxis, yAxis := -1, -1
	for d, dim := range mask.Dims {
		switch dim {
		case xDim:
			xAxis = d
		case yDim:
			yAxis = d
		}
	}
	if xAxis == -1 || yAxis == -1 {
		return nil, fmt.Errorf("field %q declares stride axes (%s, %s) it does not have; axes are %v", mask.Name, xDim, yDim, mask.Dims)
	}

	nx, ny := mask.Shape[xAxis], mask.Shape[yAxis]
	values := make([]float64, 0, nx*ny)
	for i := 0; i < nx; i++ {
		rowSlice, err := mask.SelectIndex(xDim, i)
		if err != nil {
			return nil, err
		}
		for j := 0; j < ny; j++ {
			window, err := rowSlice.SelectIndex(yDim, j)
			if err != nil {
				return nil, err
			}
			v, err := fn(window)
			if err != nil {
				return nil, fmt.Errorf("window (%d, %d): %w", i, j, err)
			}
			values = append(values, v)
		}
	}

	out, err := field.New(name, []string{xDim, yDim}, []int{nx, ny}, values)
	if err != nil {
		return nil, err
	}
	if c, ok := mask.Coords[xDim]; ok {
		out.Coords[xDim] = c
	}
	if c, ok := mask.Coords[yDim]; ok {
		out.Coords[yDim] = c
	}
	if id, ok := mask.Attr("scene_id"); ok {
		out.SetAttr("scene_id", id)
	}
	return out, nil
}
