package collab

import (
	"maps"
	"slices"

	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// Palette colours other users' cursors by connection id.
var Palette = []string{"#DC2626", "#D97706", "#059669", "#7C3AED", "#DB2777"}

// ColorFor returns the palette entry for a connection.
func ColorFor(connectionID int) string {
	n := connectionID % len(Palette)
	if n < 0 {
		n += len(Palette)
	}
	return Palette[n]
}

// PresenceBoard tracks the local presence and the last known presence of
// every other connection in the room.
type PresenceBoard struct {
	self   int
	local  state.PresenceRecord
	others map[int]state.PresenceRecord
}

func NewPresenceBoard() *PresenceBoard {
	return &PresenceBoard{others: make(map[int]state.PresenceRecord)}
}

func (p *PresenceBoard) Self() int { return p.self }

func (p *PresenceBoard) Local() state.PresenceRecord { return p.local }

// Reset replaces the peer list, as on a welcome from the room.
func (p *PresenceBoard) Reset(self int, peers map[int]state.PresenceRecord) {
	p.self = self
	p.others = make(map[int]state.PresenceRecord, len(peers))
	for id, rec := range peers {
		if id != self {
			p.others[id] = rec
		}
	}
}

// Upsert stores a peer's presence. Updates about ourselves are ignored.
func (p *PresenceBoard) Upsert(connectionID int, rec state.PresenceRecord) {
	if connectionID == p.self {
		return
	}
	p.others[connectionID] = rec
}

func (p *PresenceBoard) Remove(connectionID int) {
	delete(p.others, connectionID)
}

// Forget drops every peer, used when the connection is lost.
func (p *PresenceBoard) Forget() {
	p.others = make(map[int]state.PresenceRecord)
}

// SetCursor updates the local cursor and reports whether it changed.
func (p *PresenceBoard) SetCursor(pt *state.Point) bool {
	if equalPoint(p.local.Cursor, pt) {
		return false
	}
	if pt != nil {
		c := *pt
		pt = &c
	}
	p.local.Cursor = pt
	return true
}

// SetMessage updates the local chat message and reports whether it changed.
func (p *PresenceBoard) SetMessage(msg *string) bool {
	if equalString(p.local.Message, msg) {
		return false
	}
	if msg != nil {
		m := *msg
		msg = &m
	}
	p.local.Message = msg
	return true
}

// Cursors returns the other connections that have a cursor, ordered by id.
func (p *PresenceBoard) Cursors() []scene.Cursor {
	out := make([]scene.Cursor, 0, len(p.others))
	for _, id := range slices.Sorted(maps.Keys(p.others)) {
		rec := p.others[id]
		if rec.Cursor == nil {
			continue
		}
		c := scene.Cursor{ConnectionID: id, Color: ColorFor(id), X: rec.Cursor.X, Y: rec.Cursor.Y}
		if rec.Message != nil {
			c.Message = *rec.Message
		}
		out = append(out, c)
	}
	return out
}

// Connections returns every known connection id, ours first.
func (p *PresenceBoard) Connections() []int {
	out := []int{p.self}
	return append(out, slices.Sorted(maps.Keys(p.others))...)
}

func equalPoint(a, b *state.Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
