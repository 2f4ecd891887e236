package scene

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/field"
)

// extractImageScene turns a single image file into one scene artifact. The
// scene ID is the filename stem. Pixel rows are flipped so row 0 is the
// bottom of the picture, keeping masks plot-consistent with the source image.
func extractImageScene(path string) (Scene, error) {
	f, err := decodeImageField(path)
	if err != nil {
		return Scene{}, err
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(filepath.Dir(path), SubDir, id+field.Ext)
	if err := field.Save(outPath, f); err != nil {
		return Scene{}, err
	}
	return Scene{ID: id, Path: outPath}, nil
}

// decodeImageField loads an image as a (y, x, rgb) field with 8-bit channel
// values stored as float64.
func decodeImageField(path string) (*field.Field, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer fh.Close()

	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}

	bounds := img.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()
	values := make([]float64, h*w*3)

	for y := 0; y < h; y++ {
		// vertical flip: image row 0 lands in field row h-1
		row := h - 1 - y
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			base := (row*w + x) * 3
			values[base+0] = float64(r >> 8)
			values[base+1] = float64(g >> 8)
			values[base+2] = float64(b >> 8)
		}
	}

	return field.New("image", []string{"y", "x", "rgb"}, []int{h, w, 3}, values)
}
