package encode

import (
	"context"
	"image"
	"io"

	"github.com/sizeofint/webpanimation"
)

// encodeWebP muxes frames into an animated WebP container. Quality maps
// directly onto the lossy compression scalar; the loop directive uses
// the same semantics as GIF (0 = forever, N = N repeats).
func encodeWebP(ctx context.Context, frames []image.Image, o Options, w io.Writer, progress Progress) error {
	cw, ch := canvasSize(frames)
	delay := DelayMS(o.FPS)

	anim := webpanimation.NewWebpAnimation(cw, ch, o.LoopCount)
	defer anim.ReleaseMemory()

	cfg := webpanimation.NewWebpConfig()
	cfg.SetLossless(0)
	cfg.SetQuality(float32(o.Quality))

	timestamp := 0
	for i, frame := range frames {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		if err := anim.AddFrame(compose(frame, cw, ch), timestamp, cfg); err != nil {
			return &EncodeError{FrameIndex: i, Cause: err}
		}
		timestamp += delay
		progress(i+1, len(frames))
	}

	if ctx.Err() != nil {
		return ErrCancelled
	}

	// A nil frame closes the last frame's display interval.
	if err := anim.AddFrame(nil, timestamp, cfg); err != nil {
		return &EncodeError{FrameIndex: -1, Cause: err}
	}
	if err := anim.Encode(w); err != nil {
		return &EncodeError{FrameIndex: -1, Cause: err}
	}
	return nil
}
