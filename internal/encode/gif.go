package encode

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

// paletteColors maps quality to GIF palette size. Outside optimize mode
// the full 256-color palette is always used.
func paletteColors(o Options) int {
	if !o.Optimize {
		return 256
	}
	n := 2 + o.Quality*254/100
	if n < 2 {
		n = 2
	}
	if n > 256 {
		n = 256
	}
	return n
}

// encodeGIF quantizes each frame with a median-cut palette and writes
// the sequence with a uniform delay and the loop directive. LoopCount 0
// is the infinite-loop directive; N > 0 writes exactly N repeats.
func encodeGIF(ctx context.Context, frames []image.Image, o Options, w io.Writer, progress Progress) error {
	cw, ch := canvasSize(frames)
	delay := delayCS(o.FPS)
	colors := paletteColors(o)

	// LoopCount lands in the Netscape extension verbatim: 0 is the
	// loop-forever directive, N > 0 exactly N repeats.
	out := &gif.GIF{LoopCount: o.LoopCount}

	q := quantize.MedianCutQuantizer{}
	for i, frame := range frames {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		img := compose(frame, cw, ch)
		pal := q.Quantize(make(color.Palette, 0, colors), img)
		p := image.NewPaletted(img.Bounds(), pal)
		if o.Optimize {
			draw.FloydSteinberg.Draw(p, p.Bounds(), img, image.Point{})
		} else {
			draw.Draw(p, p.Bounds(), img, image.Point{}, draw.Src)
		}

		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, delay)
		progress(i+1, len(frames))
	}

	if ctx.Err() != nil {
		return ErrCancelled
	}
	if err := gif.EncodeAll(w, out); err != nil {
		return &EncodeError{FrameIndex: -1, Cause: err}
	}
	return nil
}
