// Package encode muxes resampled frame sequences into animated GIF or
// WebP files. Output is all-or-nothing: frames are written to a temp
// file that is renamed over the destination only on success, so an
// aborted or cancelled export never leaves a partial file on disk.
package encode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"

	"github.com/seankd/gifforge/internal/config"
)

// ErrCancelled reports a user-requested abort, observed at a frame
// boundary.
var ErrCancelled = errors.New("export cancelled")

// EncodeError reports a codec or I/O failure during muxing. FrameIndex
// is -1 when the failure happened at container finalization rather than
// on a specific frame.
type EncodeError struct {
	FrameIndex int
	Cause      error
}

func (e *EncodeError) Error() string {
	if e.FrameIndex < 0 {
		return fmt.Sprintf("encode: container write failed: %v", e.Cause)
	}
	return fmt.Sprintf("encode frame %d: %v", e.FrameIndex, e.Cause)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// Progress reports fractional completion as processed/total after each
// frame.
type Progress func(processed, total int)

// Options carries the container parameters of one export.
type Options struct {
	FPS       int
	LoopCount int // 0 = loop forever, N > 0 = exactly N repeats
	Format    config.Format
	Optimize  bool
	Quality   int // 1..100, higher = larger/more faithful
}

// DelayMS is the uniform per-frame display delay in milliseconds.
func DelayMS(fps int) int {
	return int(math.Round(1000 / float64(fps)))
}

// delayCS is the GIF delay in 1/100s units.
func delayCS(fps int) int {
	return int(math.Round(float64(DelayMS(fps)) / 10))
}

// Encode muxes frames, in exactly the given order, into dst.
func Encode(ctx context.Context, frames []image.Image, o Options, dst string, progress Progress) (err error) {
	if len(frames) == 0 {
		return errors.New("encode: no frames")
	}
	if o.FPS <= 0 {
		return fmt.Errorf("encode: invalid fps %d", o.FPS)
	}
	if progress == nil {
		progress = func(int, int) {}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".gifforge-*.tmp")
	if err != nil {
		return &EncodeError{FrameIndex: -1, Cause: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	switch o.Format {
	case config.FormatGIF:
		err = encodeGIF(ctx, frames, o, tmp, progress)
	case config.FormatWebP:
		err = encodeWebP(ctx, frames, o, tmp, progress)
	default:
		err = fmt.Errorf("encode: unknown format %q", o.Format)
	}
	if err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return &EncodeError{FrameIndex: -1, Cause: err}
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return &EncodeError{FrameIndex: -1, Cause: err}
	}
	return nil
}

// canvasSize is the logical screen covering every frame. Frames are
// resized per source independently, so widths may differ across one
// sequence.
func canvasSize(frames []image.Image) (int, int) {
	var w, h int
	for _, f := range frames {
		b := f.Bounds()
		if b.Dx() > w {
			w = b.Dx()
		}
		if b.Dy() > h {
			h = b.Dy()
		}
	}
	return w, h
}

// compose centers a frame on an opaque white canvas so every container
// frame shares the same dimensions.
func compose(frame image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	b := frame.Bounds()
	off := image.Pt((w-b.Dx())/2, (h-b.Dy())/2)
	draw.Draw(dst, image.Rectangle{Min: off, Max: off.Add(b.Size())}, frame, b.Min, draw.Src)
	return dst
}
