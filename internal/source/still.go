package source

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	// Standard still formats registered with image.Decode. GIF sources
	// contribute their first frame only.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/seankd/gifforge/internal/dng"
)

func decodeStill(ref, path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Cause: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Cause: err}
	}
	return Flatten(img), nil
}

func probeStill(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err
}

func decodeRaw(ref, path string) (*image.RGBA, error) {
	img, err := dng.DecodeFile(path)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Cause: err}
	}
	return img, nil
}

// probeRaw checks the TIFF header without reading the sensor data.
func probeRaw(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := f.Read(head); err != nil {
		return dng.ErrNotRaw
	}
	le := head[0] == 'I' && head[1] == 'I' && head[2] == 42 && head[3] == 0
	be := head[0] == 'M' && head[1] == 'M' && head[2] == 0 && head[3] == 42
	if !le && !be {
		return dng.ErrNotRaw
	}
	return nil
}

// Flatten converts any decoded image to the canonical buffer: origin at
// (0,0), alpha composited onto an opaque white background and discarded.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
