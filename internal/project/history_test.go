package project

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyRecorded performs a store mutation and records it, the way the
// engine wraps every FrameStore call.
func applyRecorded(s *Store, h *History, kind ActionKind, mutate func() Snapshot) {
	before := s.Frames()
	after := mutate()
	h.Record(kind, before, after)
}

func TestUndoInvertsMostRecentMutation(t *testing.T) {
	s := NewStore()
	h := NewHistory()

	applyRecorded(s, h, ActionAddFrames, func() Snapshot { return s.Append(frames("a", "b", "c")) })
	applyRecorded(s, h, ActionRemoveFrame, func() Snapshot {
		snap, err := s.RemoveAt(1)
		require.NoError(t, err)
		return snap
	})
	assert.Equal(t, []string{"a", "c"}, refsOf(s.Frames()))

	entry, err := h.Undo()
	require.NoError(t, err)
	s.Restore(entry.Before)
	assert.Equal(t, []string{"a", "b", "c"}, refsOf(s.Frames()))

	entry, err = h.Redo()
	require.NoError(t, err)
	s.Restore(entry.After)
	assert.Equal(t, []string{"a", "c"}, refsOf(s.Frames()))
}

func TestUndoRedoIsIdentity(t *testing.T) {
	s := NewStore()
	h := NewHistory()

	// A run of mutations with no undo/redo interleaved.
	applyRecorded(s, h, ActionAddFrames, func() Snapshot { return s.Append(frames("a")) })
	applyRecorded(s, h, ActionAddFrames, func() Snapshot { return s.Append(frames("b", "c")) })
	applyRecorded(s, h, ActionRemoveFrame, func() Snapshot {
		snap, err := s.RemoveAt(0)
		require.NoError(t, err)
		return snap
	})

	want := refsOf(s.Frames())
	for i := 0; i < 3; i++ {
		entry, err := h.Undo()
		require.NoError(t, err)
		s.Restore(entry.Before)

		entry, err = h.Redo()
		require.NoError(t, err)
		s.Restore(entry.After)

		assert.Equal(t, want, refsOf(s.Frames()), "undo;redo must be the identity")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	h := NewHistory()
	h.Record(ActionAddFrames, nil, frames("a"))
	h.Record(ActionAddFrames, frames("a"), frames("a", "b"))

	_, err := h.Undo()
	require.NoError(t, err)
	assert.True(t, h.CanRedo())

	// A new mutation forecloses the undone future.
	h.Record(ActionRemoveFrame, frames("a"), nil)
	assert.False(t, h.CanRedo())
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrHistoryUnderflow)
}

func TestUnderflowIsReportedNotFatal(t *testing.T) {
	h := NewHistory()

	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrHistoryUnderflow)
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrHistoryUnderflow)

	// The stacks still work after an underflow.
	h.Record(ActionAddFrames, nil, frames("a"))
	_, err = h.Undo()
	assert.NoError(t, err)
}

func TestResetDiscardsBothStacks(t *testing.T) {
	h := NewHistory()
	h.Record(ActionAddFrames, nil, frames("a"))
	h.Record(ActionAddFrames, frames("a"), frames("a", "b"))
	_, err := h.Undo()
	require.NoError(t, err)

	h.Reset()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistoryDepth(t *testing.T) {
	s := NewStore()
	h := NewHistory()

	// History is conceptually unbounded: a long run of mutations must
	// unwind entry by entry back to the empty project.
	for i := 0; i < 100; i++ {
		ref := fmt.Sprintf("frame-%03d.png", i)
		applyRecorded(s, h, ActionAddFrames, func() Snapshot { return s.Append(frames(ref)) })
	}
	require.Equal(t, 100, s.Len())

	for i := 0; i < 100; i++ {
		entry, err := h.Undo()
		require.NoError(t, err)
		s.Restore(entry.Before)
	}
	assert.Equal(t, 0, s.Len())
}
