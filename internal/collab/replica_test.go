package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

type recordingLink struct {
	ops []state.Op
}

func (l *recordingLink) SendOps(ops []state.Op) error {
	l.ops = append(l.ops, ops...)
	return nil
}

func (l *recordingLink) SendPresence(state.PresenceRecord) error { return nil }
func (l *recordingLink) SendBroadcast(state.ReactionEvent) error { return nil }

func rectRecord(id string, left float64) state.ShapeRecord {
	return state.ShapeRecord{ObjectID: id, Kind: state.KindRectangle, Left: left, Top: 10, Width: 100, Height: 100, Fill: "#aabbcc"}
}

func TestReplica_ClearIsIdempotent(t *testing.T) {
	r := NewReplica(state.NewClockFor("a"), nil, nil)
	assert.True(t, r.Clear(), "clearing an empty table succeeds")
	assert.False(t, r.CanUndo())

	r.Put(rectRecord("r1", 0))
	r.Put(rectRecord("r2", 50))
	assert.True(t, r.Clear())
	assert.Zero(t, r.Len())
	assert.True(t, r.Clear())
	assert.Zero(t, r.Len())

	require.True(t, r.Undo())
	assert.Equal(t, []string{"r1", "r2"}, r.Keys())
}

func TestReplica_InvalidMutationsAreNoOps(t *testing.T) {
	link := &recordingLink{}
	r := NewReplica(state.NewClockFor("a"), link, nil)

	assert.False(t, r.Put(state.ShapeRecord{Kind: state.KindRectangle}))
	assert.False(t, r.Delete("missing"))
	assert.False(t, r.PutAll(nil))
	assert.Empty(t, link.ops)
	assert.Empty(t, r.TakeChanges())

	store := NewShapeStore(r)
	assert.False(t, store.Commit(nil))
	assert.False(t, store.Commit(&scene.Object{Kind: state.KindEllipse}))
}

func TestReplica_UndoRedoSymmetry(t *testing.T) {
	r := NewReplica(state.NewClockFor("a"), nil, nil)
	r.Put(rectRecord("r1", 1))
	r.Put(rectRecord("r1", 2))
	r.Delete("r1")

	require.True(t, r.Undo())
	got, ok := r.Get("r1")
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Left)

	require.True(t, r.Undo())
	got, _ = r.Get("r1")
	assert.Equal(t, 1.0, got.Left)

	require.True(t, r.Undo())
	_, ok = r.Get("r1")
	assert.False(t, ok)
	assert.False(t, r.Undo(), "undo past the start is a no-op")
	assert.Zero(t, r.Len())

	require.True(t, r.Redo())
	got, _ = r.Get("r1")
	assert.Equal(t, 1.0, got.Left)
	require.True(t, r.Redo())
	require.True(t, r.Redo())
	_, ok = r.Get("r1")
	assert.False(t, ok)
	assert.False(t, r.Redo(), "redo past the end is a no-op")
}

func TestReplica_NewWriteDropsRedo(t *testing.T) {
	r := NewReplica(state.NewClockFor("a"), nil, nil)
	r.Put(rectRecord("r1", 1))
	r.Undo()
	assert.True(t, r.CanRedo())
	r.Put(rectRecord("r2", 1))
	assert.False(t, r.CanRedo())
}

func TestReplica_StampsFollowRemoteClock(t *testing.T) {
	link := &recordingLink{}
	r := NewReplica(state.NewClockFor("a"), link, nil)

	remote := state.Put(rectRecord("x", 0))
	remote.Stamp = state.Stamp{Lamport: 10, Site: "b"}
	assert.Equal(t, []string{"x"}, r.ApplyRemote([]state.Op{remote}))

	r.Put(rectRecord("x", 5))
	require.Len(t, link.ops, 1)
	assert.Equal(t, state.Stamp{Lamport: 11, Site: "a"}, link.ops[0].Stamp)
	got, _ := r.Get("x")
	assert.Equal(t, 5.0, got.Left)

	changes := r.TakeChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, OriginRemote, changes[0].Origin)
	assert.Equal(t, OriginLocal, changes[1].Origin)
	assert.Empty(t, r.TakeChanges())
}

func TestReplica_UndoIsReplicatedAsFreshWrite(t *testing.T) {
	link := &recordingLink{}
	r := NewReplica(state.NewClockFor("a"), link, nil)
	r.Put(rectRecord("r1", 1))
	r.Undo()

	require.Len(t, link.ops, 2)
	assert.Equal(t, state.OpDelete, link.ops[1].Type)
	assert.True(t, link.ops[1].Stamp.After(link.ops[0].Stamp))
}

func TestReplica_ResyncReplacesTable(t *testing.T) {
	r := NewReplica(state.NewClockFor("a"), nil, nil)
	r.Put(rectRecord("local", 1))

	snap := state.Put(rectRecord("remote", 2))
	snap.Stamp = state.Stamp{Lamport: 40, Site: "b"}
	changed := r.Resync([]state.Op{snap})

	assert.Equal(t, []string{"local", "remote"}, changed)
	assert.Equal(t, []string{"remote"}, r.Keys())
}

func TestReplica_UnchangedPutRecordsNothing(t *testing.T) {
	link := &recordingLink{}
	r := NewReplica(state.NewClockFor("a"), link, nil)
	require.True(t, r.Put(rectRecord("r1", 1)))
	r.TakeChanges()

	assert.False(t, r.Put(rectRecord("r1", 1)))
	assert.Len(t, link.ops, 1)
	assert.Empty(t, r.TakeChanges())

	assert.True(t, r.PutAll([]state.ShapeRecord{rectRecord("r1", 1), rectRecord("r2", 3)}))
	require.Len(t, link.ops, 2)
	assert.Equal(t, "r2", link.ops[1].ObjectID)

	require.True(t, r.Undo())
	assert.Equal(t, []string{"r1"}, r.Keys())
	require.True(t, r.Undo())
	assert.Zero(t, r.Len())
	assert.False(t, r.CanUndo())
}

func TestReplica_ResyncReplaysSentOps(t *testing.T) {
	link := &recordingLink{}
	r := NewReplica(state.NewClockFor("a"), link, nil)
	r.Put(rectRecord("early", 1))

	snap := state.Put(rectRecord("remote", 2))
	snap.Stamp = state.Stamp{Lamport: 40, Site: "b"}
	changed := r.Resync([]state.Op{snap})
	assert.Equal(t, []string{"early", "remote"}, changed)
	assert.Equal(t, []string{"early", "remote"}, r.Keys())

	r.Put(rectRecord("late", 3))
	r.Unsync()
	r.Resync([]state.Op{snap})
	assert.Equal(t, []string{"remote"}, r.Keys(), "ops sent while synced are not replayed")
}

func TestReplica_ResyncKeepsNewerSnapshot(t *testing.T) {
	link := &recordingLink{}
	r := NewReplica(state.NewClockFor("a"), link, nil)
	r.Put(rectRecord("x", 1))

	snap := state.Put(rectRecord("x", 9))
	snap.Stamp = state.Stamp{Lamport: 40, Site: "b"}
	r.Resync([]state.Op{snap})

	got, ok := r.Get("x")
	require.True(t, ok)
	assert.Equal(t, 9.0, got.Left)
}
