package collab

import (
	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// Serialize converts an engine object into a table record and stamps the
// object id on it. It reports false for a nil or untagged object.
func Serialize(o *scene.Object) (state.ShapeRecord, bool) {
	if o == nil || o.ObjectID == "" {
		return state.ShapeRecord{}, false
	}
	rec := o.ToRecord()
	rec.ObjectID = o.ObjectID
	return rec, true
}

// Materialize builds a new engine object from a table record.
func Materialize(rec state.ShapeRecord) *scene.Object {
	o := &scene.Object{ObjectID: rec.ObjectID}
	o.SetFromRecord(rec)
	return o
}

// ShapeStore is the write side of the adapter: it turns engine objects into
// table mutations. It never touches the scene.
type ShapeStore struct {
	replica *Replica
}

func NewShapeStore(replica *Replica) *ShapeStore {
	return &ShapeStore{replica: replica}
}

// Commit writes the object's current form under its id. A nil object is a no-op.
func (s *ShapeStore) Commit(o *scene.Object) bool {
	rec, ok := Serialize(o)
	if !ok {
		return false
	}
	return s.replica.Put(rec)
}

// CommitAll writes several objects as one undoable unit.
func (s *ShapeStore) CommitAll(objects []*scene.Object) bool {
	recs := make([]state.ShapeRecord, 0, len(objects))
	for _, o := range objects {
		if rec, ok := Serialize(o); ok {
			recs = append(recs, rec)
		}
	}
	return s.replica.PutAll(recs)
}

// Delete removes the record for id. The scene follows through reconciliation.
func (s *ShapeStore) Delete(objectID string) bool {
	return s.replica.Delete(objectID)
}

// Clear removes every record. It succeeds on an empty table.
func (s *ShapeStore) Clear() bool {
	return s.replica.Clear()
}

// Record returns the committed record for id.
func (s *ShapeStore) Record(objectID string) (state.ShapeRecord, bool) {
	return s.replica.Get(objectID)
}
