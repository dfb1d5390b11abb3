// Package engine consolidates the project store, history and export
// pipeline behind one owned controller. All shared mutable state lives
// here; callers interact through command methods only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seankd/gifforge/internal/config"
	"github.com/seankd/gifforge/internal/encode"
	"github.com/seankd/gifforge/internal/project"
	"github.com/seankd/gifforge/internal/resample"
	"github.com/seankd/gifforge/internal/source"
	"github.com/seankd/gifforge/internal/system"
)

var (
	// ErrExportBusy rejects frame mutations while an export is in
	// flight; the export's snapshot must never change under it.
	ErrExportBusy = errors.New("an export is in progress")

	// ErrEmptyProject rejects an export with zero frames before any
	// destination file is created.
	ErrEmptyProject = errors.New("project has no frames")
)

// Options configures a new engine.
type Options struct {
	Logger zerolog.Logger

	// Workers bounds the parallel decode/resize stage. 0 sizes the pool
	// from host resources at export time.
	Workers int

	// OnFramesChanged receives the index range whose derived previews or
	// thumbnails must be regenerated after a mutation.
	OnFramesChanged func(from, to int)
}

// Engine is the single controller owning one project.
type Engine struct {
	mu sync.Mutex

	settings config.Settings
	store    *project.Store
	history  *project.History
	dec      source.Decoder
	log      zerolog.Logger
	workers  int

	exporting bool
}

// New creates an empty project with the given settings.
func New(settings config.Settings, dec source.Decoder, opts Options) *Engine {
	e := &Engine{
		settings: settings,
		store:    project.NewStore(),
		history:  project.NewHistory(),
		dec:      dec,
		log:      opts.Logger,
		workers:  opts.Workers,
	}
	e.store.SetChangeHook(opts.OnFramesChanged)
	return e
}

// Close tears the project down: frames and both history stacks are
// discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Restore(nil)
	e.history.Reset()
}

// AddFrames appends the frames contributed by the given paths, in the
// given order; a PDF path contributes one frame per page. The add is
// atomic across its whole input list: every path is probed before the
// store mutates, and one bad path aborts the add with the project
// unchanged.
func (e *Engine) AddFrames(paths []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exporting {
		return ErrExportBusy
	}
	if len(paths) == 0 {
		return nil
	}

	var frames []project.Frame
	for _, path := range paths {
		refs, err := source.Expand(path)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			kind := project.KindStandard
			if source.IsRaw(ref) {
				kind = project.KindRawSensor
			}
			frames = append(frames, project.Frame{Ref: ref, Kind: kind})
		}
	}

	before := e.store.Frames()
	after := e.store.Append(frames)
	e.history.Record(project.ActionAddFrames, before, after)

	e.log.Debug().Int("added", len(frames)).Int("total", len(after)).Msg("frames appended")
	return nil
}

// RemoveFrame removes exactly the frame at index i.
func (e *Engine) RemoveFrame(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exporting {
		return ErrExportBusy
	}

	before := e.store.Frames()
	after, err := e.store.RemoveAt(i)
	if err != nil {
		return err
	}
	e.history.Record(project.ActionRemoveFrame, before, after)

	e.log.Debug().Int("index", i).Int("total", len(after)).Msg("frame removed")
	return nil
}

// Undo restores the frame sequence preceding the most recent mutation.
// On an empty undo stack it is a no-op reporting ErrHistoryUnderflow.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exporting {
		return ErrExportBusy
	}

	entry, err := e.history.Undo()
	if err != nil {
		e.log.Debug().Msg("undo with empty history")
		return err
	}
	e.store.Restore(entry.Before)
	return nil
}

// Redo re-applies the most recently undone mutation. On an empty redo
// stack it is a no-op reporting ErrHistoryUnderflow.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exporting {
		return ErrExportBusy
	}

	entry, err := e.history.Redo()
	if err != nil {
		e.log.Debug().Msg("redo with empty history")
		return err
	}
	e.store.Restore(entry.After)
	return nil
}

// ResetHistory discards both history stacks, leaving frames untouched.
func (e *Engine) ResetHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Reset()
}

// updateSettings validates the mutated copy before committing it, so a
// bad value can never reach an export.
func (e *Engine) updateSettings(fn func(*config.Settings)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.settings
	fn(&s)
	if err := s.Validate(); err != nil {
		return err
	}
	e.settings = s
	return nil
}

func (e *Engine) SetFPS(fps int) error {
	return e.updateSettings(func(s *config.Settings) { s.FPS = fps })
}

// SetResolution sets the explicit output height; 0 keeps the original
// resolution.
func (e *Engine) SetResolution(height int) error {
	return e.updateSettings(func(s *config.Settings) { s.OutputHeight = height })
}

func (e *Engine) SetOptimize(on bool) error {
	return e.updateSettings(func(s *config.Settings) { s.Optimize = on })
}

func (e *Engine) SetQuality(q int) error {
	return e.updateSettings(func(s *config.Settings) { s.Quality = q })
}

func (e *Engine) SetFormat(f config.Format) error {
	return e.updateSettings(func(s *config.Settings) { s.Format = f })
}

func (e *Engine) SetLoopCount(n int) error {
	return e.updateSettings(func(s *config.Settings) { s.LoopCount = n })
}

// Settings returns a copy of the current export settings.
func (e *Engine) Settings() config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Frames returns a snapshot of the current frame sequence.
func (e *Engine) Frames() project.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Frames()
}

// FrameCount is the playback controller's frame-count source.
func (e *Engine) FrameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Len()
}

// PreviewFrame decodes and resamples one frame for the playback
// preview. The canonical buffer is cached on the frame; project state
// is otherwise untouched.
func (e *Engine) PreviewFrame(ctx context.Context, i int) (image.Image, error) {
	e.mu.Lock()
	fr, err := e.store.Frame(i)
	spec := resample.Spec{Height: e.settings.OutputHeight, Optimize: e.settings.Optimize}
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	buf := fr.Buffer()
	if buf == nil {
		buf, err = e.dec.Decode(ctx, fr.Ref)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		// Cache only if the index still names the same source.
		if cur, cerr := e.store.Frame(i); cerr == nil && cur.Ref == fr.Ref {
			e.store.SetBuffer(i, buf)
		}
		e.mu.Unlock()
	}

	return resample.Resize(buf, spec)
}

// Export muxes the current frame sequence into dst. The sequence is
// snapshotted up front; decode and resize run in a bounded parallel
// stage while the container is written strictly in sequence order.
// Output is all-or-nothing and cancellation via ctx is observed at
// frame boundaries.
func (e *Engine) Export(ctx context.Context, dst string, progress encode.Progress) error {
	e.mu.Lock()
	if e.exporting {
		e.mu.Unlock()
		return ErrExportBusy
	}
	settings := e.settings
	if err := settings.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.store.Len() == 0 {
		e.mu.Unlock()
		return ErrEmptyProject
	}
	snap := e.store.Frames()
	workers := e.workers
	e.exporting = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.exporting = false
		e.mu.Unlock()
	}()

	if workers <= 0 {
		workers = system.DecodeWorkers(len(snap))
	}

	e.log.Info().
		Int("frames", len(snap)).
		Int("fps", settings.FPS).
		Str("format", string(settings.Format)).
		Int("workers", workers).
		Str("dst", dst).
		Msg("export started")

	spec := resample.Spec{Height: settings.OutputHeight, Optimize: settings.Optimize}
	results := make([]image.Image, len(snap))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range snap {
		fr := snap[i]
		g.Go(func() error {
			buf := fr.Buffer()
			if buf == nil {
				var err error
				buf, err = e.dec.Decode(gctx, fr.Ref)
				if err != nil {
					return err
				}
			}
			out, err := resample.Resize(buf, spec)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			e.log.Info().Msg("export cancelled")
			return encode.ErrCancelled
		}
		e.log.Error().Err(err).Msg("export aborted")
		return err
	}

	opts := encode.Options{
		FPS:       settings.FPS,
		LoopCount: settings.LoopCount,
		Format:    settings.Format,
		Optimize:  settings.Optimize,
		Quality:   settings.Quality,
	}
	if err := encode.Encode(ctx, results, opts, dst, progress); err != nil {
		e.log.Error().Err(err).Msg("export aborted")
		return err
	}

	e.log.Info().Str("dst", dst).Msg("export finished")
	return nil
}
