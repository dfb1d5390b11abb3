// Package resample resizes canonical buffers to the export resolution.
package resample

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// OptimizeMaxDim bounds both frame dimensions in optimize mode.
const OptimizeMaxDim = 800

// Spec describes the target resolution of one resize.
type Spec struct {
	// Height is the explicit output height; 0 keeps the original size.
	// Width is always derived from the source aspect ratio.
	Height int

	// Optimize caps both dimensions at OptimizeMaxDim after any explicit
	// resize, per frame independently.
	Optimize bool
}

// ResizeError reports a degenerate computed dimension.
type ResizeError struct {
	Width  int
	Height int
}

func (e *ResizeError) Error() string {
	return fmt.Sprintf("computed frame dimensions %dx%d are degenerate", e.Width, e.Height)
}

// Resize scales a buffer per the spec using Lanczos resampling for both
// upscale and downscale. With a zero spec the buffer passes through
// unchanged.
func Resize(img image.Image, spec Spec) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, &ResizeError{Width: w, Height: h}
	}

	if spec.Height > 0 && spec.Height != h {
		nh := spec.Height
		nw := int(math.Round(float64(nh) * float64(w) / float64(h)))
		if nw <= 0 || nh <= 0 {
			return nil, &ResizeError{Width: nw, Height: nh}
		}
		img = imaging.Resize(img, nw, nh, imaging.Lanczos)
		w, h = nw, nh
	}

	if spec.Optimize && (w > OptimizeMaxDim || h > OptimizeMaxDim) {
		img = imaging.Fit(img, OptimizeMaxDim, OptimizeMaxDim, imaging.Lanczos)
	}

	return img, nil
}
