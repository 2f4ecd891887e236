package field

import (
	"fmt"
	"math"
)

// DType identifies the logical element type of a Field. Boolean fields are
// stored as 0/1 float64 values so the two types share one backing slice.
type DType string

const (
	Float64 DType = "float64"
	Bool    DType = "bool"
)

// Coord holds the coordinate values along one axis. Numeric axes populate
// Values; label axes (e.g. scene IDs) populate Labels. A Coord may carry
// both, but the lengths must match the axis length.
type Coord struct {
	Values []float64 `msgpack:"values,omitempty"`
	Labels []string  `msgpack:"labels,omitempty"`
}

// Len returns the number of coordinate entries.
func (c Coord) Len() int {
	if len(c.Labels) > 0 {
		return len(c.Labels)
	}
	return len(c.Values)
}

// Field is one named N-dimensional array with row-major layout.
type Field struct {
	Name   string            `msgpack:"name"`
	Dims   []string          `msgpack:"dims"`
	Shape  []int             `msgpack:"shape"`
	DType  DType             `msgpack:"dtype"`
	Values []float64         `msgpack:"values"`
	Coords map[string]Coord  `msgpack:"coords,omitempty"`
	Attrs  map[string]string `msgpack:"attrs,omitempty"`
}

// New constructs a Field and validates that the value count matches the shape.
func New(name string, dims []string, shape []int, values []float64) (*Field, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("field %q: %d dims but %d shape entries", name, len(dims), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("field %q: negative axis length %d", name, s)
		}
		n *= s
	}
	if n != len(values) {
		return nil, fmt.Errorf("field %q: shape %v requires %d values, got %d", name, shape, n, len(values))
	}
	return &Field{
		Name:   name,
		Dims:   dims,
		Shape:  shape,
		DType:  Float64,
		Values: values,
		Coords: map[string]Coord{},
		Attrs:  map[string]string{},
	}, nil
}

// Scalar constructs a zero-dimensional Field holding a single value.
func Scalar(name string, value float64) *Field {
	return &Field{
		Name:   name,
		Dims:   []string{},
		Shape:  []int{},
		DType:  Float64,
		Values: []float64{value},
		Coords: map[string]Coord{},
		Attrs:  map[string]string{},
	}
}

// Rank returns the number of axes.
func (f *Field) Rank() int { return len(f.Dims) }

// Size returns the total element count.
func (f *Field) Size() int { return len(f.Values) }

// Index converts a multi-dimensional index into the row-major offset.
func (f *Field) Index(idx ...int) int {
	if len(idx) != len(f.Shape) {
		panic(fmt.Sprintf("field %q: index rank %d != field rank %d", f.Name, len(idx), len(f.Shape)))
	}
	offset := 0
	for d, i := range idx {
		offset = offset*f.Shape[d] + i
	}
	return offset
}

// At returns the value at a multi-dimensional index.
func (f *Field) At(idx ...int) float64 { return f.Values[f.Index(idx...)] }

// Min returns the smallest value. NaN values are ignored; an empty field
// returns NaN.
func (f *Field) Min() float64 {
	min := math.NaN()
	for _, v := range f.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(min) || v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value, with the same NaN handling as Min.
func (f *Field) Max() float64 {
	max := math.NaN()
	for _, v := range f.Values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(max) || v > max {
			max = v
		}
	}
	return max
}

// IsBool reports whether the field is boolean-typed.
func (f *Field) IsBool() bool { return f.DType == Bool }

// AsBool returns a copy of the field with DType set to Bool. Values are
// normalized so that any non-zero entry becomes 1.
func (f *Field) AsBool() *Field {
	out := f.Copy()
	out.DType = Bool
	for i, v := range out.Values {
		if v != 0 {
			out.Values[i] = 1
		}
	}
	return out
}

// Copy returns a deep copy of the field.
func (f *Field) Copy() *Field {
	out := &Field{
		Name:   f.Name,
		Dims:   append([]string(nil), f.Dims...),
		Shape:  append([]int(nil), f.Shape...),
		DType:  f.DType,
		Values: append([]float64(nil), f.Values...),
		Coords: make(map[string]Coord, len(f.Coords)),
		Attrs:  make(map[string]string, len(f.Attrs)),
	}
	for k, c := range f.Coords {
		out.Coords[k] = Coord{
			Values: append([]float64(nil), c.Values...),
			Labels: append([]string(nil), c.Labels...),
		}
	}
	for k, v := range f.Attrs {
		out.Attrs[k] = v
	}
	return out
}

// SetAttr stamps a metadata attribute on the field.
func (f *Field) SetAttr(key, value string) {
	if f.Attrs == nil {
		f.Attrs = map[string]string{}
	}
	f.Attrs[key] = value
}

// Attr looks up a metadata attribute.
func (f *Field) Attr(key string) (string, bool) {
	v, ok := f.Attrs[key]
	return v, ok
}

// DataVars implements Data: a Field is its own single variable.
func (f *Field) DataVars() []*Field { return []*Field{f} }

func (f *Field) data() {}
