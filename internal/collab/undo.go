package collab

// Undo reverts the most recent local unit by writing its inverse as a fresh
// change. It reports false when there is nothing to undo.
func (r *Replica) Undo() bool {
	u, ok := r.history.PopUndo()
	if !ok {
		return false
	}
	r.commit(u.Undo, nil, false)
	return true
}

// Redo re-applies the most recently undone unit.
func (r *Replica) Redo() bool {
	u, ok := r.history.PopRedo()
	if !ok {
		return false
	}
	r.commit(u.Redo, nil, false)
	return true
}

func (r *Replica) CanUndo() bool { return r.history.CanUndo() }
func (r *Replica) CanRedo() bool { return r.history.CanRedo() }
