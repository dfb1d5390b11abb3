package resample

import (
	"image"
	"math"
	"testing"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0x30
		img.Pix[i+1] = 0x60
		img.Pix[i+2] = 0x90
		img.Pix[i+3] = 0xff
	}
	return img
}

func TestOriginalPassesThrough(t *testing.T) {
	src := solid(640, 480)
	out, err := Resize(src, Spec{})
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if out != image.Image(src) {
		t.Error("expected the source buffer back unchanged")
	}
}

func TestExplicitHeightPreservesAspect(t *testing.T) {
	tests := []struct {
		srcW, srcH int
		height     int
	}{
		{1920, 1080, 720},
		{1080, 1920, 720},
		{640, 480, 1080}, // upscale
		{333, 777, 480},
		{100, 99, 33},
	}

	for _, tt := range tests {
		out, err := Resize(solid(tt.srcW, tt.srcH), Spec{Height: tt.height})
		if err != nil {
			t.Fatalf("Resize %dx%d -> h%d failed: %v", tt.srcW, tt.srcH, tt.height, err)
		}

		b := out.Bounds()
		if b.Dy() != tt.height {
			t.Errorf("%dx%d -> h%d: got height %d", tt.srcW, tt.srcH, tt.height, b.Dy())
		}

		wantW := float64(tt.height) * float64(tt.srcW) / float64(tt.srcH)
		if math.Abs(float64(b.Dx())-wantW) > 1 {
			t.Errorf("%dx%d -> h%d: width %d breaks aspect ratio (want ~%.1f)",
				tt.srcW, tt.srcH, tt.height, b.Dx(), wantW)
		}
	}
}

func TestOptimizeCapsDimensions(t *testing.T) {
	tests := []struct{ w, h int }{
		{1600, 900},
		{900, 1600},
		{2000, 2000},
	}
	for _, tt := range tests {
		out, err := Resize(solid(tt.w, tt.h), Spec{Optimize: true})
		if err != nil {
			t.Fatalf("Resize failed: %v", err)
		}
		b := out.Bounds()
		if b.Dx() > OptimizeMaxDim || b.Dy() > OptimizeMaxDim {
			t.Errorf("%dx%d: optimize produced %dx%d, exceeds cap", tt.w, tt.h, b.Dx(), b.Dy())
		}

		srcAspect := float64(tt.w) / float64(tt.h)
		outAspect := float64(b.Dx()) / float64(b.Dy())
		if math.Abs(srcAspect-outAspect) > 0.05 {
			t.Errorf("%dx%d: aspect drifted to %.3f (src %.3f)", tt.w, tt.h, outAspect, srcAspect)
		}
	}
}

func TestOptimizeLeavesSmallFramesAlone(t *testing.T) {
	out, err := Resize(solid(400, 300), Spec{Optimize: true})
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("got %dx%d, want 400x300 untouched", b.Dx(), b.Dy())
	}
}

func TestExplicitHeightThenOptimizeCap(t *testing.T) {
	// Explicit height above the cap must still be clamped in optimize mode.
	out, err := Resize(solid(1920, 1080), Spec{Height: 1080, Optimize: true})
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 800 {
		t.Errorf("got width %d, want 800 (cap on the long side)", b.Dx())
	}
}

func TestDegenerateDimensions(t *testing.T) {
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	_, err := Resize(empty, Spec{Height: 100})
	if _, ok := err.(*ResizeError); !ok {
		t.Fatalf("expected *ResizeError for zero source, got %v", err)
	}

	// Extreme portrait: round(100 * 1/10000) computes a zero width.
	sliver := image.NewRGBA(image.Rect(0, 0, 1, 10000))
	_, err = Resize(sliver, Spec{Height: 100})
	if _, ok := err.(*ResizeError); !ok {
		t.Fatalf("expected *ResizeError for degenerate aspect ratio, got %v", err)
	}
}
