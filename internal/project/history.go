package project

import "errors"

// ErrHistoryUnderflow reports undo/redo on an empty stack. It is
// recoverable: the operation becomes a no-op and the UI may show a hint.
var ErrHistoryUnderflow = errors.New("history underflow")

// ActionKind names the mutation recorded by a history entry.
type ActionKind string

const (
	ActionAddFrames   ActionKind = "add-frames"
	ActionRemoveFrame ActionKind = "remove-frame"
)

// HistoryEntry pairs a recorded action with the full frame sequence
// before and after it. Entries are full copies, not diffs: undo cost is
// proportional to sequence length, a deliberate simplicity/memory
// tradeoff.
type HistoryEntry struct {
	Kind   ActionKind
	Before Snapshot
	After  Snapshot
}

// History is the undo/redo stack pair for one project.
type History struct {
	undo []HistoryEntry
	redo []HistoryEntry
}

func NewHistory() *History {
	return &History{}
}

// Record pushes an entry onto the undo stack and unconditionally clears
// the redo stack: a new mutation forecloses all previously-undone
// futures.
func (h *History) Record(kind ActionKind, before, after Snapshot) {
	h.undo = append(h.undo, HistoryEntry{Kind: kind, Before: before, After: after})
	h.redo = nil
}

// Undo pops the most recent entry and moves it to the redo stack. The
// caller restores the entry's Before snapshot.
func (h *History) Undo() (HistoryEntry, error) {
	if len(h.undo) == 0 {
		return HistoryEntry{}, ErrHistoryUnderflow
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	return e, nil
}

// Redo is the symmetric inverse of Undo. The caller restores the
// entry's After snapshot.
func (h *History) Redo() (HistoryEntry, error) {
	if len(h.redo) == 0 {
		return HistoryEntry{}, ErrHistoryUnderflow
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	return e, nil
}

// Reset discards both stacks. This is the only way history entries are
// ever dropped.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
