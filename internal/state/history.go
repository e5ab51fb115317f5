package state

// Unit is one reversible mutation of the table. Both sides hold unstamped ops;
// they are stamped again every time they are replayed.
type Unit struct {
	Redo []Op
	Undo []Op
}

// History keeps the undo and redo stacks of a replica. Recording a new unit
// drops everything that could have been redone.
type History struct {
	undoStack []Unit
	redoStack []Unit
	limit     int
}

// NewHistory creates a history that keeps at most limit units; limit <= 0
// means unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Record(u Unit) {
	if len(u.Redo) == 0 {
		return
	}
	h.undoStack = append(h.undoStack, u)
	if h.limit > 0 && len(h.undoStack) > h.limit {
		h.undoStack = h.undoStack[len(h.undoStack)-h.limit:]
	}
	h.redoStack = nil
}

// PopUndo takes the latest unit and moves it onto the redo stack.
func (h *History) PopUndo() (Unit, bool) {
	if len(h.undoStack) == 0 {
		return Unit{}, false
	}
	last := len(h.undoStack) - 1
	u := h.undoStack[last]
	h.undoStack = h.undoStack[:last]
	h.redoStack = append(h.redoStack, u)
	return u, true
}

// PopRedo takes the latest undone unit and moves it back onto the undo stack.
func (h *History) PopRedo() (Unit, bool) {
	if len(h.redoStack) == 0 {
		return Unit{}, false
	}
	last := len(h.redoStack) - 1
	u := h.redoStack[last]
	h.redoStack = h.redoStack[:last]
	h.undoStack = append(h.undoStack, u)
	return u, true
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// Len returns the number of undoable units.
func (h *History) Len() int { return len(h.undoStack) }
