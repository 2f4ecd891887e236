package metrics

import (
	"fmt"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

var builtins = map[string]Func{
	"cloud_fraction":   CloudFraction,
	"clear_fraction":   ClearFraction,
	"num_objects":      NumObjects,
	"mean_object_size": MeanObjectSize,
	"max_object_size":  MaxObjectSize,
}

// CloudFraction is the fraction of cloudy pixels in the mask.
func CloudFraction(mask *field.Field) (float64, error) {
	if mask.Size() == 0 {
		return 0, fmt.Errorf("cloud_fraction: empty mask")
	}
	cloudy := 0
	for _, v := range mask.Values {
		if v != 0 {
			cloudy++
		}
	}
	return float64(cloudy) / float64(mask.Size()), nil
}

// ClearFraction is the fraction of clear-sky pixels in the mask.
func ClearFraction(mask *field.Field) (float64, error) {
	cf, err := CloudFraction(mask)
	if err != nil {
		return 0, fmt.Errorf("clear_fraction: %w", err)
	}
	return 1 - cf, nil
}

// NumObjects counts 4-connected cloud objects in a 2-D mask.
func NumObjects(mask *field.Field) (float64, error) {
	sizes, err := objectSizes(mask)
	if err != nil {
		return 0, err
	}
	return float64(len(sizes)), nil
}

// MeanObjectSize is the mean pixel count per cloud object. A mask without
// objects yields zero.
func MeanObjectSize(mask *field.Field) (float64, error) {
	sizes, err := objectSizes(mask)
	if err != nil {
		return 0, err
	}
	if len(sizes) == 0 {
		return 0, nil
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	return float64(total) / float64(len(sizes)), nil
}

// MaxObjectSize is the pixel count of the largest cloud object.
func MaxObjectSize(mask *field.Field) (float64, error) {
	sizes, err := objectSizes(mask)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, s := range sizes {
		if s > max {
			max = s
		}
	}
	return float64(max), nil
}

// objectSizes labels 4-connected components of a 2-D mask and returns the
// pixel count of each.
func objectSizes(mask *field.Field) ([]int, error) {
	if mask.Rank() != 2 {
		return nil, fmt.Errorf("object metrics require a 2-D mask, got axes %v", mask.Dims)
	}
	ny, nx := mask.Shape[0], mask.Shape[1]
	visited := make([]bool, mask.Size())

	var sizes []int
	var stack []int
	for start, v := range mask.Values {
		if v == 0 || visited[start] {
			continue
		}
		size := 0
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++

			y, x := idx/nx, idx%nx
			for _, n := range [4][2]int{{y - 1, x}, {y + 1, x}, {y, x - 1}, {y, x + 1}} {
				if n[0] < 0 || n[0] >= ny || n[1] < 0 || n[1] >= nx {
					continue
				}
				nIdx := n[0]*nx + n[1]
				if !visited[nIdx] && mask.Values[nIdx] != 0 {
					visited[nIdx] = true
					stack = append(stack, nIdx)
				}
			}
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}
