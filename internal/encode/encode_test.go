package encode

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/seankd/gifforge/internal/config"
)

func TestDelayMS(t *testing.T) {
	tests := []struct {
		fps  int
		want int
	}{
		{6, 167},
		{12, 83},
		{24, 42},
		{30, 33},
		{48, 21},
		{60, 17},
	}
	for _, tt := range tests {
		if got := DelayMS(tt.fps); got != tt.want {
			t.Errorf("DelayMS(%d) = %d, want %d", tt.fps, got, tt.want)
		}
	}
}

func testFrames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		c := color.RGBA{R: uint8(40 * i), G: 0x80, B: uint8(255 - 40*i), A: 0xff}
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		out[i] = img
	}
	return out
}

func gifOptions() Options {
	return Options{FPS: 24, LoopCount: 0, Format: config.FormatGIF, Optimize: true, Quality: 85}
}

func TestEncodeGIFRoundTrip(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.gif")

	var reports []int
	progress := func(processed, total int) {
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
		reports = append(reports, processed)
	}

	if err := Encode(context.Background(), testFrames(3), gifOptions(), dst, progress); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if len(reports) != 3 || reports[0] != 1 || reports[2] != 3 {
		t.Errorf("progress reports = %v, want [1 2 3]", reports)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()

	decoded, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}
	if len(decoded.Image) != 3 {
		t.Fatalf("got %d frames, want 3", len(decoded.Image))
	}
	if decoded.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0 (infinite)", decoded.LoopCount)
	}
	for i, d := range decoded.Delay {
		if d != 4 { // round(1000/24) ms = 42 -> 4 in 1/100s
			t.Errorf("frame %d delay = %d, want 4", i, d)
		}
	}
}

func TestEncodeGIFFiniteLoop(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "loop.gif")

	o := gifOptions()
	o.LoopCount = 5
	if err := Encode(context.Background(), testFrames(2), o, dst, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.LoopCount != 5 {
		t.Errorf("LoopCount = %d, want 5", decoded.LoopCount)
	}
}

func TestEncodeMixedFrameSizes(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "mixed.gif")

	frames := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 32, 16)),
		image.NewRGBA(image.Rect(0, 0, 16, 32)),
	}
	if err := Encode(context.Background(), frames, gifOptions(), dst, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}
	// Every container frame shares the covering canvas.
	for i, img := range decoded.Image {
		b := img.Bounds()
		if b.Dx() != 32 || b.Dy() != 32 {
			t.Errorf("frame %d bounds %v, want 32x32 canvas", i, b)
		}
	}
}

func TestEncodeCancelledLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.gif")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Encode(ctx, testFrames(3), gifOptions(), dst, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}

	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("cancelled export left a destination file")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cancelled export left temp files: %v", entries)
	}
}

func TestEncodeCancelAtFrameBoundary(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.gif")

	ctx, cancel := context.WithCancel(context.Background())
	progress := func(processed, total int) {
		if processed == 2 {
			cancel()
		}
	}

	err := Encode(ctx, testFrames(5), gifOptions(), dst, progress)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("cancelled export left a destination file")
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.gif")

	if err := Encode(context.Background(), nil, gifOptions(), dst, nil); err == nil {
		t.Error("expected error for empty frame slice")
	}

	o := gifOptions()
	o.FPS = 0
	if err := Encode(context.Background(), testFrames(1), o, dst, nil); err == nil {
		t.Error("expected error for fps 0")
	}

	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("rejected export created a destination file")
	}
}

func TestPaletteColors(t *testing.T) {
	tests := []struct {
		optimize bool
		quality  int
		want     int
	}{
		{false, 1, 256},
		{false, 100, 256},
		{true, 100, 256},
		{true, 1, 4},
		{true, 50, 129},
	}
	for _, tt := range tests {
		o := Options{Optimize: tt.optimize, Quality: tt.quality}
		if got := paletteColors(o); got != tt.want {
			t.Errorf("paletteColors(optimize=%v q=%d) = %d, want %d",
				tt.optimize, tt.quality, got, tt.want)
		}
	}
}
