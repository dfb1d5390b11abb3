package config

import (
	"fmt"
)

// Format selects the animated output container.
type Format string

const (
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
)

// Settings holds the export configuration of a project. Frame data lives
// in the project store; Settings only carries how the sequence is muxed.
type Settings struct {
	// FPS is the playback and export frame rate. Any positive integer is
	// accepted; the UI conventionally offers 6/12/24/30/48/60.
	FPS int

	// LoopCount is the container loop directive. 0 means loop forever,
	// N > 0 means exactly N finite repeats.
	LoopCount int

	// OutputHeight is the target frame height in pixels. 0 keeps the
	// original resolution; otherwise width is derived per frame to
	// preserve the source aspect ratio.
	OutputHeight int

	// Optimize caps frame dimensions at 800px and enables lossy size
	// reduction keyed to Quality.
	Optimize bool

	// Quality in [1,100], higher = larger and more faithful. Meaningful
	// when Optimize is set or the format is lossy.
	Quality int

	Format Format
}

// Default returns the settings a freshly created project starts with.
func Default() Settings {
	return Settings{
		FPS:       24,
		LoopCount: 0,
		Optimize:  true,
		Quality:   85,
		Format:    FormatGIF,
	}
}

// Validate checks every field against its allowed range. It runs before
// any export work begins so invalid values never reach a codec.
func (s Settings) Validate() error {
	if s.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", s.FPS)
	}
	if s.LoopCount < 0 {
		return fmt.Errorf("loop count must be >= 0, got %d", s.LoopCount)
	}
	if s.OutputHeight < 0 {
		return fmt.Errorf("output height must not be negative, got %d", s.OutputHeight)
	}
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("quality %d out of range [1,100]", s.Quality)
	}
	switch s.Format {
	case FormatGIF, FormatWebP:
	default:
		return fmt.Errorf("unknown output format %q", s.Format)
	}
	return nil
}
