package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(id string) Unit {
	return Unit{Redo: []Op{Put(ShapeRecord{ObjectID: id})}, Undo: []Op{Delete(id)}}
}

func TestHistory_EmptyStacks(t *testing.T) {
	h := NewHistory(0)
	_, ok := h.PopUndo()
	assert.False(t, ok)
	_, ok = h.PopRedo()
	assert.False(t, ok)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistory_UndoRedoMovesUnits(t *testing.T) {
	h := NewHistory(0)
	h.Record(unit("a"))
	h.Record(unit("b"))

	u, ok := h.PopUndo()
	require.True(t, ok)
	assert.Equal(t, "b", u.Redo[0].ObjectID)
	assert.True(t, h.CanRedo())

	u, ok = h.PopRedo()
	require.True(t, ok)
	assert.Equal(t, "b", u.Redo[0].ObjectID)
	assert.Equal(t, 2, h.Len())
}

func TestHistory_RecordClearsRedo(t *testing.T) {
	h := NewHistory(0)
	h.Record(unit("a"))
	h.PopUndo()
	h.Record(unit("b"))
	assert.False(t, h.CanRedo())
	assert.Equal(t, 1, h.Len())
}

func TestHistory_LimitAndEmptyUnits(t *testing.T) {
	h := NewHistory(2)
	h.Record(Unit{})
	assert.Equal(t, 0, h.Len())

	h.Record(unit("a"))
	h.Record(unit("b"))
	h.Record(unit("c"))
	assert.Equal(t, 2, h.Len())
	u, _ := h.PopUndo()
	assert.Equal(t, "c", u.Redo[0].ObjectID)
	u, _ = h.PopUndo()
	assert.Equal(t, "b", u.Redo[0].ObjectID)
	assert.False(t, h.CanUndo())
}
