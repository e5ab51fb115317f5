package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stamped(op Op, lamport uint64, site string) Op {
	op.Stamp = Stamp{Lamport: lamport, Site: site}
	return op
}

func rect(id string, left float64) ShapeRecord {
	return ShapeRecord{ObjectID: id, Kind: KindRectangle, Left: left, Top: 10, Width: 100, Height: 50, Fill: "#aabbcc"}
}

func TestTable_ApplyPutAndGet(t *testing.T) {
	tbl := NewTable()
	assert.True(t, tbl.Apply(stamped(Put(rect("r1", 5)), 1, "a")))

	got, ok := tbl.Get("r1")
	require.True(t, ok)
	assert.Equal(t, 5.0, got.Left)
	assert.Equal(t, []string{"r1"}, tbl.Keys())
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_LastWriteWins(t *testing.T) {
	tbl := NewTable()
	tbl.Apply(stamped(Put(rect("r1", 1)), 5, "a"))

	assert.False(t, tbl.Apply(stamped(Put(rect("r1", 2)), 4, "b")), "older write must lose")
	got, _ := tbl.Get("r1")
	assert.Equal(t, 1.0, got.Left)

	assert.True(t, tbl.Apply(stamped(Put(rect("r1", 3)), 5, "b")), "equal lamport breaks tie on site")
	got, _ = tbl.Get("r1")
	assert.Equal(t, 3.0, got.Left)
}

func TestTable_TombstoneBlocksOlderPut(t *testing.T) {
	tbl := NewTable()
	tbl.Apply(stamped(Put(rect("r1", 1)), 1, "a"))
	assert.True(t, tbl.Apply(stamped(Delete("r1"), 3, "a")))

	assert.False(t, tbl.Apply(stamped(Put(rect("r1", 9)), 2, "b")))
	_, ok := tbl.Get("r1")
	assert.False(t, ok)
	assert.Empty(t, tbl.Records())
}

func TestTable_DeleteUnknownKeyIsNoop(t *testing.T) {
	tbl := NewTable()
	assert.False(t, tbl.Apply(stamped(Delete("ghost"), 1, "a")))
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_OrderIndependent(t *testing.T) {
	ops := []Op{
		stamped(Put(rect("a", 1)), 1, "x"),
		stamped(Put(rect("a", 2)), 2, "y"),
		stamped(Delete("b"), 4, "x"),
		stamped(Put(rect("b", 3)), 3, "y"),
		stamped(Put(rect("c", 4)), 1, "y"),
	}
	forward := NewTable()
	for _, op := range ops {
		forward.Apply(op)
	}
	backward := NewTable()
	for i := len(ops) - 1; i >= 0; i-- {
		backward.Apply(ops[i])
	}
	assert.Equal(t, forward.Records(), backward.Records())
	assert.Equal(t, []string{"a", "c"}, forward.Keys())
}

func TestTable_RecordsAreCopies(t *testing.T) {
	tbl := NewTable()
	rec := ShapeRecord{ObjectID: "p1", Kind: KindPath, Points: []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}
	tbl.Apply(stamped(Put(rec), 1, "a"))

	rec.Points[0].X = 99
	got, _ := tbl.Get("p1")
	assert.Equal(t, 1.0, got.Points[0].X)

	got.Points[1].X = 42
	again, _ := tbl.Get("p1")
	assert.Equal(t, 2.0, again.Points[1].X)
}

func TestTable_ReplaceReportsChanges(t *testing.T) {
	tbl := NewTable()
	tbl.ApplyAll([]Op{
		stamped(Put(rect("keep", 1)), 1, "a"),
		stamped(Put(rect("gone", 1)), 2, "a"),
		stamped(Put(rect("moved", 1)), 3, "a"),
	})

	changed := tbl.Replace([]Op{
		stamped(Put(rect("keep", 1)), 1, "a"),
		stamped(Put(rect("moved", 7)), 9, "b"),
		stamped(Put(rect("new", 1)), 4, "b"),
	})
	assert.Equal(t, []string{"gone", "moved", "new"}, changed)
	assert.Equal(t, []string{"keep", "moved", "new"}, tbl.Keys())
	assert.Equal(t, uint64(9), tbl.MaxLamport())
}

func TestTable_OpsIncludeTombstones(t *testing.T) {
	tbl := NewTable()
	tbl.Apply(stamped(Put(rect("a", 1)), 1, "x"))
	tbl.Apply(stamped(Delete("a"), 2, "x"))
	tbl.Apply(stamped(Put(rect("b", 1)), 3, "x"))

	ops := tbl.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, OpDelete, ops[0].Type)
	assert.Nil(t, ops[0].Record)
	assert.Equal(t, OpPut, ops[1].Type)

	replica := NewTable()
	replica.Replace(ops)
	assert.False(t, replica.Apply(stamped(Put(rect("a", 5)), 1, "y")))
}

func TestTable_IgnoresInvalidOps(t *testing.T) {
	tbl := NewTable()
	assert.False(t, tbl.Apply(Op{Type: OpPut, ObjectID: "x", Stamp: Stamp{Lamport: 1}}))
	assert.False(t, tbl.Apply(stamped(Put(ShapeRecord{Kind: KindLine}), 1, "a")))
	assert.Equal(t, 0, tbl.Len())
}
