package net

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCanvas/internal/collab"
	"LiveCanvas/internal/room"
	"LiveCanvas/internal/state"
)

type chanPoster struct {
	events chan collab.Event
}

func newPoster() *chanPoster {
	return &chanPoster{events: make(chan collab.Event, 64)}
}

func (p *chanPoster) Post(ev collab.Event) bool {
	p.events <- ev
	return true
}

// next returns the first event of type T, skipping others.
func next[T collab.Event](t *testing.T, p *chanPoster) T {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-p.events:
			if v, ok := ev.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("no %T event", zero)
			return zero
		}
	}
}

func startRelay(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()
	rooms := room.NewManager(nil, nil)
	srv := httptest.NewServer(NewServer(rooms, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, rooms
}

func targetFor(srv *httptest.Server, roomID string) Target {
	return Target{Addr: strings.TrimPrefix(srv.URL, "http://"), Room: roomID}
}

func putOp(id string, lamport uint64, site string) state.Op {
	rec := state.ShapeRecord{ObjectID: id, Kind: state.KindRectangle, Width: 10, Height: 10, Fill: "#aabbcc"}
	op := state.Put(rec)
	op.Stamp = state.Stamp{Lamport: lamport, Site: site}
	return op
}

func runClient(t *testing.T, ctx context.Context, target Target) (*Client, *chanPoster) {
	t.Helper()
	c := NewClient(target, 50*time.Millisecond, nil)
	p := newPoster()
	go func() { _ = c.Run(ctx, p) }()
	return c, p
}

func TestServerHealth(t *testing.T) {
	srv, _ := startRelay(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestServerLatestUnknownRoom(t *testing.T) {
	srv, _ := startRelay(t)
	resp, err := http.Get(srv.URL + "/rooms/nope/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientsExchangeThroughRelay(t *testing.T) {
	srv, rooms := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, pa := runClient(t, ctx, targetFor(srv, "main"))
	welcomeA := next[collab.Welcome](t, pa)
	assert.Empty(t, welcomeA.Snapshot)

	require.NoError(t, a.SendOps([]state.Op{putOp("r1", 1, "A")}))
	require.Eventually(t, func() bool {
		r, ok := rooms.Lookup("main")
		return ok && len(r.Records()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	b, pb := runClient(t, ctx, targetFor(srv, "main"))
	welcomeB := next[collab.Welcome](t, pb)
	require.Len(t, welcomeB.Snapshot, 1)
	assert.Equal(t, "r1", welcomeB.Snapshot[0].ObjectID)
	assert.NotEqual(t, welcomeA.Self, welcomeB.Self)

	require.NoError(t, b.SendOps([]state.Op{putOp("r2", 2, "B")}))
	ops := next[collab.RemoteOps](t, pa)
	require.Len(t, ops.Ops, 1)
	assert.Equal(t, "r2", ops.Ops[0].ObjectID)

	require.NoError(t, a.SendPresence(state.PresenceRecord{Cursor: &state.Point{X: 3, Y: 4}}))
	presence := next[collab.PresenceChanged](t, pb)
	assert.Equal(t, welcomeA.Self, presence.ConnectionID)
	assert.Equal(t, 3.0, presence.Presence.Cursor.X)

	require.NoError(t, b.SendBroadcast(state.ReactionEvent{Point: state.Point{X: 1, Y: 2}, Value: "🔥", Timestamp: 5}))
	reaction := next[collab.ReactionReceived](t, pa)
	assert.Equal(t, "🔥", reaction.Reaction.Value)

	resp, err := http.Get(srv.URL + "/rooms/main/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	var records map[string]state.ShapeRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Len(t, records, 2)
	assert.Contains(t, records, "r1")
	assert.Contains(t, records, "r2")
}

func TestClientLeaveReachesPeers(t *testing.T) {
	srv, _ := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, pa := runClient(t, ctx, targetFor(srv, "main"))
	next[collab.Welcome](t, pa)

	bctx, bcancel := context.WithCancel(ctx)
	_, pb := runClient(t, bctx, targetFor(srv, "main"))
	welcomeB := next[collab.Welcome](t, pb)
	bcancel()

	left := next[collab.PeerLeft](t, pa)
	assert.Equal(t, welcomeB.Self, left.ConnectionID)
}

func TestClientSendWhileDisconnected(t *testing.T) {
	c := NewClient(Target{Addr: "127.0.0.1:1", Room: "main"}, time.Second, nil)
	assert.ErrorIs(t, c.SendOps(nil), ErrNotConnected)
	assert.ErrorIs(t, c.SendPresence(state.PresenceRecord{}), ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestClientRunReportsDialFailure(t *testing.T) {
	srv, _ := startRelay(t)
	target := targetFor(srv, "main")
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, p := runClient(t, ctx, target)
	ev := next[collab.Disconnected](t, p)
	assert.Error(t, ev.Err)
}
