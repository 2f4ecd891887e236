package pipeline

import (
	"fmt"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

// OffsetStrideCenter centers each window inside its stride cell. It requires
// the stride to be at least the window size.
const OffsetStrideCenter = "stride_center"

// TileOptions configures the sliding-window tiling step. A zero Stride
// defaults to Size (non-overlapping windows); an empty Offset means windows
// start at zero.
type TileOptions struct {
	Size   int
	Stride int
	Offset string
}

// resolve validates the options and returns (stride, offset).
func (o TileOptions) resolve() (int, int, error) {
	if o.Size <= 0 {
		return 0, 0, fmt.Errorf("tile: window_size must be positive, got %d", o.Size)
	}
	stride := o.Stride
	if stride == 0 {
		stride = o.Size
	}
	if stride < 0 {
		return 0, 0, fmt.Errorf("tile: window_stride must be positive, got %d", stride)
	}

	switch o.Offset {
	case "":
		return stride, 0, nil
	case OffsetStrideCenter:
		if stride < o.Size {
			return 0, 0, fmt.Errorf("tile: %q requires window_stride >= window_size (stride %d < size %d)", OffsetStrideCenter, stride, o.Size)
		}
		return stride, (stride - o.Size) / 2, nil
	default:
		return 0, 0, fmt.Errorf("tile: window_offset %q is not implemented", o.Offset)
	}
}

// params returns the identifier parameters for the step. The stride is
// recorded in resolved form and the offset only when set, so equal setups
// always derive equal identifiers.
func (o TileOptions) params() (Params, error) {
	stride, _, err := o.resolve()
	if err != nil {
		return nil, err
	}
	ps := Params{
		P("window_size", o.Size),
		P("window_stride", stride),
	}
	if o.Offset != "" {
		ps = append(ps, P("window_offset", o.Offset))
	}
	return ps, nil
}

// slidingWindow produces the 4-D windowed view of a 2-D field: two stride
// axes holding window start positions and two window axes holding each
// window's content. Stride-axis coordinates take the source coordinate of
// each window's first element (or the element index when the source axis has
// no coordinate).
func slidingWindow(f *field.Field, opts TileOptions) (*field.Field, error) {
	if f.Rank() != 2 {
		return nil, fmt.Errorf("tile: expected a 2-D field, got %q with axes %v", f.Name, f.Dims)
	}
	stride, offset, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	size := opts.Size

	d0, d1 := f.Dims[0], f.Dims[1]
	starts0 := windowStarts(f.Shape[0], size, stride, offset)
	starts1 := windowStarts(f.Shape[1], size, stride, offset)
	if len(starts0) == 0 || len(starts1) == 0 {
		return nil, fmt.Errorf("tile: window_size %d does not fit field %q of shape %v", size, f.Name, f.Shape)
	}

	n0, n1 := len(starts0), len(starts1)
	values := make([]float64, 0, n0*n1*size*size)
	for _, s0 := range starts0 {
		for _, s1 := range starts1 {
			for wy := 0; wy < size; wy++ {
				row := (s0+wy)*f.Shape[1] + s1
				values = append(values, f.Values[row:row+size]...)
			}
		}
	}

	dims := []string{d0 + "_stride", d1 + "_stride", d0 + "_window", d1 + "_window"}
	out, err := field.New(f.Name, dims, []int{n0, n1, size, size}, values)
	if err != nil {
		return nil, err
	}
	out.DType = f.DType
	out.Coords[dims[0]] = field.Coord{Values: startCoords(f, d0, starts0)}
	out.Coords[dims[1]] = field.Coord{Values: startCoords(f, d1, starts1)}
	for k, v := range f.Attrs {
		out.Attrs[k] = v
	}
	// tag the stride axes so the metric stage iterates per window
	out.Attrs["x_dim"] = dims[0]
	out.Attrs["y_dim"] = dims[1]
	return out, nil
}

// windowStarts lists the window start positions along an axis of length n.
func windowStarts(n, size, stride, offset int) []int {
	var starts []int
	for s := offset; s+size <= n; s += stride {
		starts = append(starts, s)
	}
	return starts
}

// startCoords maps window start positions onto the source axis coordinate.
func startCoords(f *field.Field, dim string, starts []int) []float64 {
	coords := make([]float64, len(starts))
	src, hasCoord := f.Coords[dim]
	for i, s := range starts {
		if hasCoord && s < len(src.Values) {
			coords[i] = src.Values[s]
		} else {
			coords[i] = float64(s)
		}
	}
	return coords
}
