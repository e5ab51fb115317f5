package collab

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"LiveCanvas/internal/protocol"
	"LiveCanvas/internal/room"
	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

var errOffline = errors.New("offline")

type memPeer struct {
	inbox []protocol.Message
}

func (p *memPeer) Deliver(msg protocol.Message) bool {
	p.inbox = append(p.inbox, msg)
	return true
}

func (p *memPeer) Close() {}

type memLink struct {
	room    *room.Room
	conn    int
	offline bool
}

func (l *memLink) SendOps(ops []state.Op) error {
	if l.offline {
		return errOffline
	}
	l.room.Handle(l.conn, protocol.Message{Type: protocol.TypeOps, Ops: ops})
	return nil
}

func (l *memLink) SendPresence(p state.PresenceRecord) error {
	if l.offline {
		return errOffline
	}
	l.room.Handle(l.conn, protocol.Message{Type: protocol.TypePresence, Presence: &p})
	return nil
}

func (l *memLink) SendBroadcast(ev state.ReactionEvent) error {
	if l.offline {
		return errOffline
	}
	l.room.Handle(l.conn, protocol.Message{Type: protocol.TypeBroadcast, Reaction: &ev})
	return nil
}

// client is one session attached to a room through in-memory queues.
type client struct {
	t      *testing.T
	s      *Session
	engine *scene.Memory
	peer   *memPeer
	link   *memLink
}

func join(t *testing.T, r *room.Room, site string, now func() time.Time) *client {
	t.Helper()
	c := attach(t, r, site, now)
	c.drain()
	return c
}

// attach joins the room but leaves the welcome queued.
func attach(t *testing.T, r *room.Room, site string, now func() time.Time) *client {
	t.Helper()
	engine := scene.NewMemory()
	link := &memLink{room: r}
	n := 0
	s, err := NewSession(engine, Options{
		Link:  link,
		Clock: state.NewClockFor(site),
		Now:   now,
		NewID: func() string {
			n++
			return fmt.Sprintf("%s-%d", site, n)
		},
	})
	require.NoError(t, err)
	c := &client{t: t, s: s, engine: engine, peer: &memPeer{}, link: link}
	link.conn = r.Join(c.peer)
	return c
}

// drain dispatches every queued room message and returns how many there were.
func (c *client) drain() int {
	n := 0
	for len(c.peer.inbox) > 0 {
		msg := c.peer.inbox[0]
		c.peer.inbox = c.peer.inbox[1:]
		if ev, ok := EventFor(msg); ok {
			c.s.Dispatch(ev)
		}
		n++
	}
	return n
}

func settle(clients ...*client) {
	for {
		n := 0
		for _, c := range clients {
			n += c.drain()
		}
		if n == 0 {
			return
		}
	}
}

func (c *client) reconnect(r *room.Room) {
	r.Leave(c.link.conn)
	c.s.Dispatch(Disconnected{Err: errOffline})
	c.link.offline = false
	c.peer.inbox = nil
	c.link.conn = r.Join(c.peer)
	c.drain()
}

func (c *client) drawRect(from, to state.Point) {
	c.s.Dispatch(ToolSelected{Tool: ToolRectangle})
	c.s.Dispatch(PointerDown{Point: from})
	c.s.Dispatch(PointerMove{Point: to})
	c.s.Dispatch(PointerUp{})
}

func (c *client) click(p state.Point) {
	c.s.Dispatch(PointerDown{Point: p})
	c.s.Dispatch(PointerUp{})
}

func (c *client) key(name string, ctrl, shift bool) {
	k := Key{Name: name, Ctrl: ctrl, Shift: shift}
	c.s.Dispatch(KeyDown{Key: k})
	c.s.Dispatch(KeyUp{Key: k})
}

func center(rec state.ShapeRecord) state.Point {
	b := state.Bounds(rec)
	return state.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

func fixedNow(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}
