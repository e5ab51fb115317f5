package room

import (
	"maps"
	"slices"
	"sync"

	"pkt.systems/pslog"

	"LiveCanvas/internal/logx"
	"LiveCanvas/internal/protocol"
	"LiveCanvas/internal/state"
)

// Peer is one connection attached to a room.
type Peer interface {
	// Deliver queues msg without blocking and reports whether it was accepted.
	Deliver(msg protocol.Message) bool
	// Close drops the connection. The client will reconnect and resync.
	Close()
}

// Room is the authoritative relay for one canvas: it keeps the merged
// object table and every connection's presence, and relays writes to the
// other connections.
type Room struct {
	id  string
	log pslog.Logger

	mu       sync.Mutex
	table    *state.Table
	presence map[int]state.PresenceRecord
	peers    map[int]Peer
	nextConn int
	dirty    bool
}

// New creates an empty room.
func New(id string, log pslog.Logger) *Room {
	return &Room{
		id:       id,
		log:      logx.WithRoom(log, id),
		table:    state.NewTable(),
		presence: make(map[int]state.PresenceRecord),
		peers:    make(map[int]Peer),
	}
}

func (r *Room) ID() string { return r.id }

// Seed merges previously saved ops, as loaded from a snapshot store.
func (r *Room) Seed(ops []state.Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table.ApplyAll(ops)
}

// Join attaches p, assigns it a connection id and sends it the welcome.
func (r *Room) Join(p Peer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextConn++
	id := r.nextConn
	welcome := protocol.Message{
		Type:         protocol.TypeWelcome,
		ConnectionID: id,
		Snapshot:     r.table.Ops(),
		Peers:        maps.Clone(r.presence),
	}
	r.peers[id] = p
	r.presence[id] = state.PresenceRecord{}
	if !p.Deliver(welcome) {
		r.dropLocked(id)
		return id
	}
	logx.WithConn(r.log, id).Info("connection joined", "peers", len(r.peers))
	return id
}

// Leave detaches a connection and tells the others.
func (r *Room) Leave(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[id]; !ok {
		return
	}
	delete(r.peers, id)
	delete(r.presence, id)
	logx.WithConn(r.log, id).Info("connection left", "peers", len(r.peers))
	r.relayLocked(id, protocol.Message{Type: protocol.TypeLeave, ConnectionID: id})
}

// Handle processes one message sent by connection from.
func (r *Room) Handle(from int, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[from]; !ok {
		return
	}
	switch msg.Type {
	case protocol.TypeOps:
		if len(msg.Ops) == 0 {
			return
		}
		if changed := r.table.ApplyAll(msg.Ops); len(changed) > 0 {
			r.dirty = true
		}
		r.relayLocked(from, protocol.Message{Type: protocol.TypeOps, ConnectionID: from, Ops: msg.Ops})
	case protocol.TypePresence:
		if msg.Presence == nil {
			return
		}
		r.presence[from] = *msg.Presence
		r.relayLocked(from, protocol.Message{Type: protocol.TypePresence, ConnectionID: from, Presence: msg.Presence})
	case protocol.TypeBroadcast:
		if msg.Reaction == nil {
			return
		}
		r.relayLocked(from, protocol.Message{Type: protocol.TypeBroadcast, ConnectionID: from, Reaction: msg.Reaction})
	default:
		logx.WithConn(r.log, from).Debug("message ignored", "type", msg.Type)
	}
}

// relayLocked sends msg to everyone but exclude. A peer that cannot keep up
// with durable traffic is dropped so it resyncs on reconnect.
func (r *Room) relayLocked(exclude int, msg protocol.Message) {
	for _, id := range slices.Sorted(maps.Keys(r.peers)) {
		if id == exclude {
			continue
		}
		p, ok := r.peers[id]
		if !ok || p.Deliver(msg) || !msg.Durable() {
			continue
		}
		logx.WithConn(r.log, id).Warn("peer too slow, dropping connection")
		r.dropLocked(id)
	}
}

func (r *Room) dropLocked(id int) {
	p, ok := r.peers[id]
	if !ok {
		return
	}
	delete(r.peers, id)
	delete(r.presence, id)
	p.Close()
	r.relayLocked(id, protocol.Message{Type: protocol.TypeLeave, ConnectionID: id})
}

// Snapshot returns the full table, tombstones included.
func (r *Room) Snapshot() []state.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Ops()
}

// Records returns the live records.
func (r *Room) Records() map[string]state.ShapeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Records()
}

// Peers returns the number of attached connections.
func (r *Room) Peers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// TakeDirty reports whether the table changed since the last call.
func (r *Room) TakeDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}

func (r *Room) markDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}
