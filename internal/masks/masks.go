// Package masks provides cloud-mask transform functions and a name-keyed
// registry so declarative pipeline files can reference them.
package masks

import (
	"fmt"
	"sort"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
	"github.com/cloudsci/cloudmetrics-pipeline/internal/pipeline"
)

// luminance weights for RGB to greyscale conversion (ITU-R 709)
const (
	lumR = 0.2125
	lumG = 0.7154
	lumB = 0.0721
)

// GreyscaleThreshold turns a true-colour RGB scene into greyscale and applies
// a threshold to produce a poor man's cloud mask. The scene must be a (y, x,
// rgb) field with 8-bit channel values; the greyscale_threshold parameter is
// on the normalized 0..1 scale and defaults to 0.2.
func GreyscaleThreshold(data field.Data, params pipeline.Params) (*field.Field, error) {
	f, ok := data.(*field.Field)
	if !ok {
		return nil, fmt.Errorf("greyscale_threshold: expected a single image field, got a dataset")
	}
	if f.Rank() != 3 || f.Shape[2] < 3 {
		return nil, fmt.Errorf("greyscale_threshold: expected a (y, x, rgb) field, got %q with shape %v", f.Name, f.Shape)
	}

	threshold, err := params.Float("greyscale_threshold", 0.2)
	if err != nil {
		return nil, err
	}

	h, w := f.Shape[0], f.Shape[1]
	values := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			grey := (lumR*f.At(y, x, 0) + lumG*f.At(y, x, 1) + lumB*f.At(y, x, 2)) / 255.0
			if grey > threshold {
				values[y*w+x] = 1
			}
		}
	}

	out, err := field.New("mask", []string{"y", "x"}, []int{h, w}, values)
	if err != nil {
		return nil, err
	}
	out.DType = field.Bool
	for _, dim := range []string{"y", "x"} {
		if c, ok := f.Coords[dim]; ok {
			out.Coords[dim] = c
		}
	}
	return out, nil
}

var registry = map[string]pipeline.TransformFunc{
	"greyscale_threshold": GreyscaleThreshold,
}

// Lookup resolves a mask transform by name.
func Lookup(name string) (pipeline.Transform, bool) {
	fn, ok := registry[name]
	if !ok {
		return pipeline.Transform{}, false
	}
	return pipeline.Transform{Name: name, Fn: fn}, true
}

// Names returns the sorted transform names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
