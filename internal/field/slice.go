package field

import "fmt"

// SelectIndex returns a copy of the field with axis dim fixed at position i
// and removed from the result. Coordinates along the removed axis are dropped;
// coordinates on other axes are preserved.
func (f *Field) SelectIndex(dim string, i int) (*Field, error) {
	axis := -1
	for d, name := range f.Dims {
		if name == dim {
			axis = d
			break
		}
	}
	if axis == -1 {
		return nil, fmt.Errorf("field %q has no axis %q", f.Name, dim)
	}
	if i < 0 || i >= f.Shape[axis] {
		return nil, fmt.Errorf("field %q: index %d out of range for axis %q (length %d)", f.Name, i, dim, f.Shape[axis])
	}

	// Row-major layout: the slice is a strided walk with the chosen axis pinned.
	outer := 1
	for d := 0; d < axis; d++ {
		outer *= f.Shape[d]
	}
	inner := 1
	for d := axis + 1; d < len(f.Shape); d++ {
		inner *= f.Shape[d]
	}

	values := make([]float64, 0, outer*inner)
	stride := f.Shape[axis] * inner
	for o := 0; o < outer; o++ {
		base := o*stride + i*inner
		values = append(values, f.Values[base:base+inner]...)
	}

	dims := make([]string, 0, len(f.Dims)-1)
	shape := make([]int, 0, len(f.Shape)-1)
	for d := range f.Dims {
		if d == axis {
			continue
		}
		dims = append(dims, f.Dims[d])
		shape = append(shape, f.Shape[d])
	}

	out, err := New(f.Name, dims, shape, values)
	if err != nil {
		return nil, err
	}
	out.DType = f.DType
	for k, c := range f.Coords {
		if k == dim {
			continue
		}
		out.Coords[k] = Coord{
			Values: append([]float64(nil), c.Values...),
			Labels: append([]string(nil), c.Labels...),
		}
	}
	for k, v := range f.Attrs {
		out.Attrs[k] = v
	}
	return out, nil
}
