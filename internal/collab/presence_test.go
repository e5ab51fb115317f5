package collab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

func TestColorFor(t *testing.T) {
	assert.Equal(t, "#DC2626", ColorFor(0))
	assert.Equal(t, "#059669", ColorFor(7))
	assert.Equal(t, "#DB2777", ColorFor(-1))
}

func TestPresenceBoard_CursorsSkipSelfAndHidden(t *testing.T) {
	p := NewPresenceBoard()
	msg := "hello"
	p.Reset(2, map[int]state.PresenceRecord{
		2: {Cursor: &state.Point{X: 1, Y: 1}},
		5: {Cursor: &state.Point{X: 10, Y: 20}, Message: &msg},
		3: {Cursor: &state.Point{X: 3, Y: 4}},
		9: {},
	})
	p.Upsert(2, state.PresenceRecord{Cursor: &state.Point{}})

	assert.Equal(t, []scene.Cursor{
		{ConnectionID: 3, Color: ColorFor(3), X: 3, Y: 4},
		{ConnectionID: 5, Color: ColorFor(5), X: 10, Y: 20, Message: "hello"},
	}, p.Cursors())
	assert.Equal(t, []int{2, 3, 5, 9}, p.Connections())

	p.Remove(5)
	p.Forget()
	assert.Empty(t, p.Cursors())
}

func TestPresenceBoard_LocalChanges(t *testing.T) {
	p := NewPresenceBoard()
	pt := state.Point{X: 1, Y: 2}
	assert.True(t, p.SetCursor(&pt))
	assert.False(t, p.SetCursor(&state.Point{X: 1, Y: 2}))
	pt.X = 50
	assert.Equal(t, 1.0, p.Local().Cursor.X, "stored cursor is a copy")

	msg := ""
	assert.True(t, p.SetMessage(&msg))
	assert.False(t, p.SetMessage(&msg))
	assert.True(t, p.SetMessage(nil))
	assert.True(t, p.SetCursor(nil))
	assert.Equal(t, state.PresenceRecord{}, p.Local())
}

func TestReactionStream_Decay(t *testing.T) {
	s := NewReactionStream(0)
	t0 := time.UnixMilli(1_700_000_000_000)
	s.Add(state.ReactionEvent{Value: "🔥", Timestamp: t0.UnixMilli()})

	assert.Len(t, s.Visible(t0.Add(2000*time.Millisecond)), 1)
	assert.Zero(t, s.Prune(t0.Add(2000*time.Millisecond)))
	assert.Equal(t, 1, s.Len())

	assert.Empty(t, s.Visible(t0.Add(3100*time.Millisecond)), "expired reactions are hidden before pruning")
	require.Equal(t, 1, s.Prune(t0.Add(3100*time.Millisecond)))
	assert.Zero(t, s.Len())
}
