// Package project owns the editable frame sequence and its undo/redo
// history. The store is a plain state machine: it performs no I/O and
// is serialized by the engine that owns it.
package project

import (
	"fmt"
	"image"
)

// Kind tags how a frame's source must be decoded.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindRawSensor Kind = "raw-sensor"
)

// Frame is one ordered entry of a project: a source reference, its
// format tag and a lazily populated canonical buffer. A frame's order
// position is its index in the store, never stored on the frame itself.
type Frame struct {
	Ref  string
	Kind Kind

	// buf caches the decoded canonical buffer. It is immutable once set,
	// so snapshot copies may share it.
	buf *image.RGBA
}

// Buffer returns the cached canonical buffer, or nil when the frame has
// not been decoded yet.
func (f *Frame) Buffer() *image.RGBA { return f.buf }

// SetBuffer records the decoded canonical buffer.
func (f *Frame) SetBuffer(img *image.RGBA) { f.buf = img }

// Snapshot is an immutable copy of a project's frame sequence at one
// instant. It carries no playback or export transient state.
type Snapshot []Frame

// IndexError reports an out-of-range frame index.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("frame index %d out of range [0,%d)", e.Index, e.Len)
}

// Store holds the ordered frame sequence. Every mutation is total: it
// either applies fully or leaves the sequence untouched.
type Store struct {
	frames []Frame

	// onChange is notified with the index range whose derived data
	// (previews, thumbnails) must be regenerated.
	onChange func(from, to int)
}

func NewStore() *Store {
	return &Store{}
}

// SetChangeHook registers the derived-data invalidation callback.
func (s *Store) SetChangeHook(fn func(from, to int)) {
	s.onChange = fn
}

func (s *Store) Len() int { return len(s.frames) }

// Frame returns the frame at index i.
func (s *Store) Frame(i int) (Frame, error) {
	if i < 0 || i >= len(s.frames) {
		return Frame{}, &IndexError{Index: i, Len: len(s.frames)}
	}
	return s.frames[i], nil
}

// SetBuffer caches a decoded canonical buffer on the frame at index i.
// Buffer population is derived data, not a mutation: it records no
// history and fires no change notification.
func (s *Store) SetBuffer(i int, img *image.RGBA) error {
	if i < 0 || i >= len(s.frames) {
		return &IndexError{Index: i, Len: len(s.frames)}
	}
	s.frames[i].SetBuffer(img)
	return nil
}

// Frames returns a snapshot copy of the current sequence.
func (s *Store) Frames() Snapshot {
	snap := make(Snapshot, len(s.frames))
	copy(snap, s.frames)
	return snap
}

// Append adds frames after the last existing one, in the given order.
// Indices of all prior frames are unchanged.
func (s *Store) Append(frames []Frame) Snapshot {
	start := len(s.frames)
	s.frames = append(s.frames, frames...)
	if len(frames) > 0 {
		s.notify(start, len(s.frames)-1)
	}
	return s.Frames()
}

// RemoveAt removes exactly the frame at index i, shifting subsequent
// indices down by one.
func (s *Store) RemoveAt(i int) (Snapshot, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, &IndexError{Index: i, Len: len(s.frames)}
	}
	s.frames = append(s.frames[:i], s.frames[i+1:]...)
	last := len(s.frames) - 1
	if last < i {
		last = i
	}
	s.notify(i, last)
	return s.Frames(), nil
}

// Restore replaces the whole sequence with a snapshot. Used by undo and
// redo.
func (s *Store) Restore(snap Snapshot) Snapshot {
	s.frames = make([]Frame, len(snap))
	copy(s.frames, snap)

	last := len(s.frames) - 1
	if last < 0 {
		last = 0
	}
	s.notify(0, last)
	return s.Frames()
}

func (s *Store) notify(from, to int) {
	if s.onChange != nil {
		s.onChange(from, to)
	}
}
