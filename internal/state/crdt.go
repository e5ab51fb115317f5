package state

import (
	"sort"
	"sync"
)

// Table is the last-write-wins map behind the shared object table. Every key
// keeps the winning op (put or tombstone) so that replays and late deliveries
// converge regardless of arrival order.
type Table struct {
	entries map[string]Op
	mu      sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Op)}
}

// Apply merges one stamped op. It returns true when the visible content of the
// table changed.
func (t *Table) Apply(op Op) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applyLocked(op)
}

// ApplyAll merges a batch and returns the ids whose visible content changed.
func (t *Table) ApplyAll(ops []Op) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := make([]string, 0, len(ops))
	for _, op := range ops {
		if t.applyLocked(op) {
			changed = append(changed, op.ObjectID)
		}
	}
	return changed
}

func (t *Table) applyLocked(op Op) bool {
	if op.ObjectID == "" {
		return false
	}
	if op.Type == OpPut && op.Record == nil {
		return false
	}
	current, exists := t.entries[op.ObjectID]
	if exists && !op.Stamp.After(current.Stamp) {
		return false
	}
	stored := op
	if op.Record != nil {
		rec := op.Record.Clone()
		rec.ObjectID = op.ObjectID
		stored.Record = &rec
	}
	if op.Type == OpDelete {
		stored.Record = nil
	}
	t.entries[op.ObjectID] = stored
	wasLive := exists && current.Type == OpPut
	return wasLive || stored.Type == OpPut
}

// Replace resets the table to a full snapshot and returns the ids whose
// visible content changed. Used on (re)connect.
func (t *Table) Replace(ops []Op) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	before := t.entries
	t.entries = make(map[string]Op, len(ops))
	for _, op := range ops {
		t.applyLocked(op)
	}
	changed := make([]string, 0)
	for id, old := range before {
		cur, ok := t.entries[id]
		if old.Type == OpPut && (!ok || cur.Type != OpPut || cur.Stamp != old.Stamp) {
			changed = append(changed, id)
		}
	}
	for id, cur := range t.entries {
		if _, ok := before[id]; !ok && cur.Type == OpPut {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	return changed
}

// Get returns a copy of the live record for id.
func (t *Table) Get(id string) (ShapeRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	op, ok := t.entries[id]
	if !ok || op.Type != OpPut {
		return ShapeRecord{}, false
	}
	return op.Record.Clone(), true
}

// Records returns copies of all live records keyed by object id.
func (t *Table) Records() map[string]ShapeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]ShapeRecord, len(t.entries))
	for id, op := range t.entries {
		if op.Type == OpPut {
			out[id] = op.Record.Clone()
		}
	}
	return out
}

// Keys returns the live object ids in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.entries))
	for id, op := range t.entries {
		if op.Type == OpPut {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of live records.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, op := range t.entries {
		if op.Type == OpPut {
			n++
		}
	}
	return n
}

// Ops returns the full state, tombstones included, sorted by object id.
func (t *Table) Ops() []Op {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ops := make([]Op, 0, len(t.entries))
	for _, op := range t.entries {
		if op.Record != nil {
			rec := op.Record.Clone()
			op.Record = &rec
		}
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].ObjectID < ops[j].ObjectID })
	return ops
}

// MaxLamport returns the highest lamport value stored in the table.
func (t *Table) MaxLamport() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var max uint64
	for _, op := range t.entries {
		if op.Stamp.Lamport > max {
			max = op.Stamp.Lamport
		}
	}
	return max
}
