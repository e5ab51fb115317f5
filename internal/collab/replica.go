package collab

import (
	"errors"
	"maps"
	"reflect"
	"slices"

	"LiveCanvas/internal/logx"
	"LiveCanvas/internal/state"

	"pkt.systems/pslog"
)

// ErrOffline is returned by the link of a session that has no room.
var ErrOffline = errors.New("collab: not attached to a room")

// Link is the client side of the replication substrate.
type Link interface {
	SendOps(ops []state.Op) error
	SendPresence(p state.PresenceRecord) error
	SendBroadcast(ev state.ReactionEvent) error
}

type offlineLink struct{}

func (offlineLink) SendOps([]state.Op) error               { return ErrOffline }
func (offlineLink) SendPresence(state.PresenceRecord) error { return ErrOffline }
func (offlineLink) SendBroadcast(state.ReactionEvent) error { return ErrOffline }

// Origin tells whether a table change came from this replica or a peer.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

func (o Origin) String() string {
	if o == OriginLocal {
		return "local"
	}
	return "remote"
}

// Change lists the ids whose visible content changed in one write.
type Change struct {
	Origin Origin
	IDs    []string
}

// Replica is this client's copy of the shared object table and the only
// write path into it. Local writes are applied immediately, recorded in the
// history and forwarded over the link.
//
// Until the room's snapshot arrives, ops the link accepted are also kept in
// unsynced, latest per id, so Resync can lay them back over the snapshot.
type Replica struct {
	table    *state.Table
	clock    *state.Clock
	history  *state.History
	link     Link
	log      pslog.Logger
	pending  []Change
	synced   bool
	unsynced map[string]state.Op
}

// NewReplica creates an empty replica. A nil link keeps the replica offline.
func NewReplica(clock *state.Clock, link Link, log pslog.Logger) *Replica {
	if clock == nil {
		clock = state.NewClock()
	}
	if link == nil {
		link = offlineLink{}
	}
	return &Replica{
		table:   state.NewTable(),
		clock:   clock,
		history: state.NewHistory(0),
		link:    link,
		log:     logx.WithSite(log, clock.Site()),
	}
}

// Unsync marks the replica as detached from the room. Ops sent from now
// until the next Resync are replayed over the snapshot it brings.
func (r *Replica) Unsync() {
	r.synced = false
	r.unsynced = nil
}

func (r *Replica) Site() string { return r.clock.Site() }

func (r *Replica) Get(id string) (state.ShapeRecord, bool) { return r.table.Get(id) }

func (r *Replica) Records() map[string]state.ShapeRecord { return r.table.Records() }

func (r *Replica) Keys() []string { return r.table.Keys() }

func (r *Replica) Len() int { return r.table.Len() }

// Put inserts or replaces one record. Records without an id are ignored.
func (r *Replica) Put(rec state.ShapeRecord) bool {
	if rec.ObjectID == "" {
		return false
	}
	return r.PutAll([]state.ShapeRecord{rec})
}

// PutAll writes several records as one reversible unit. Records equal to
// the stored ones are skipped; it reports false when nothing is left.
func (r *Replica) PutAll(recs []state.ShapeRecord) bool {
	forward := make([]state.Op, 0, len(recs))
	inverse := make([]state.Op, 0, len(recs))
	for _, rec := range recs {
		if rec.ObjectID == "" {
			continue
		}
		prev, ok := r.table.Get(rec.ObjectID)
		if ok && reflect.DeepEqual(prev, rec) {
			continue
		}
		forward = append(forward, state.Put(rec))
		if ok {
			inverse = append(inverse, state.Put(prev))
		} else {
			inverse = append(inverse, state.Delete(rec.ObjectID))
		}
	}
	if len(forward) == 0 {
		return false
	}
	r.commit(forward, inverse, true)
	return true
}

// Delete removes a record. Deleting an unknown key is a no-op.
func (r *Replica) Delete(id string) bool {
	prev, ok := r.table.Get(id)
	if !ok {
		return false
	}
	r.commit([]state.Op{state.Delete(id)}, []state.Op{state.Put(prev)}, true)
	return true
}

// Clear deletes every record as one reversible unit. Clearing an empty table
// succeeds without recording anything.
func (r *Replica) Clear() bool {
	records := r.table.Records()
	if len(records) == 0 {
		return true
	}
	forward := make([]state.Op, 0, len(records))
	inverse := make([]state.Op, 0, len(records))
	for _, id := range r.table.Keys() {
		forward = append(forward, state.Delete(id))
		inverse = append(inverse, state.Put(records[id]))
	}
	r.commit(forward, inverse, true)
	return true
}

func (r *Replica) commit(forward, inverse []state.Op, record bool) {
	stamped := make([]state.Op, len(forward))
	for i, op := range forward {
		op.Stamp = r.clock.Tick()
		stamped[i] = op
	}
	changed := r.table.ApplyAll(stamped)
	if record {
		r.history.Record(state.Unit{Redo: forward, Undo: inverse})
	}
	r.note(OriginLocal, changed)
	if err := r.link.SendOps(stamped); err != nil {
		r.log.Debug("ops not sent, waiting for resync", "count", len(stamped), "err", err)
		return
	}
	if r.synced {
		return
	}
	if r.unsynced == nil {
		r.unsynced = make(map[string]state.Op)
	}
	for _, op := range stamped {
		r.unsynced[op.ObjectID] = op
	}
}

// ApplyRemote merges ops written by a peer.
func (r *Replica) ApplyRemote(ops []state.Op) []string {
	for _, op := range ops {
		r.clock.Observe(op.Stamp.Lamport)
	}
	changed := r.table.ApplyAll(ops)
	r.note(OriginRemote, changed)
	return changed
}

// Resync replaces the table with a full snapshot from the room, then
// replays the ops sent since the replica was last unsynced. The room applied
// those after taking the snapshot, so they win or lose there exactly as here.
func (r *Replica) Resync(snapshot []state.Op) []string {
	for _, op := range snapshot {
		r.clock.Observe(op.Stamp.Lamport)
	}
	changed := r.table.Replace(snapshot)
	var replay []state.Op
	for _, id := range slices.Sorted(maps.Keys(r.unsynced)) {
		replay = append(replay, r.unsynced[id])
	}
	for _, id := range r.table.ApplyAll(replay) {
		if !slices.Contains(changed, id) {
			changed = append(changed, id)
		}
	}
	slices.Sort(changed)
	r.synced = true
	r.unsynced = nil
	r.log.Info("replica resynced", "records", r.table.Len(), "replayed", len(replay), "changed", len(changed))
	r.note(OriginRemote, changed)
	return changed
}

func (r *Replica) note(origin Origin, ids []string) {
	if len(ids) == 0 {
		return
	}
	r.pending = append(r.pending, Change{Origin: origin, IDs: ids})
}

// TakeChanges returns the changes noted since the last call.
func (r *Replica) TakeChanges() []Change {
	out := r.pending
	r.pending = nil
	return out
}
