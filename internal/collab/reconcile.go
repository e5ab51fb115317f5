package collab

import (
	"maps"
	"reflect"
	"slices"

	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// ReconcileResult counts what one pass did to the scene.
type ReconcileResult struct {
	Added   []string
	Updated []string
	Removed []string
}

// Empty reports whether the pass left the scene untouched.
func (r ReconcileResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Updated) == 0 && len(r.Removed) == 0
}

// Reconciler brings the engine's objects in line with the table.
type Reconciler struct {
	engine scene.Engine
}

func NewReconciler(engine scene.Engine) *Reconciler {
	return &Reconciler{engine: engine}
}

// Reconcile makes the scene match records, skipping every id in protected.
// Existing objects are updated in place so their identity survives. It asks
// for exactly one render.
func (rc *Reconciler) Reconcile(records map[string]state.ShapeRecord, protected map[string]bool) ReconcileResult {
	var res ReconcileResult
	byID := make(map[string]*scene.Object)
	for _, o := range rc.engine.Objects() {
		if o.ObjectID == "" {
			continue
		}
		if _, dup := byID[o.ObjectID]; dup {
			if !protected[o.ObjectID] {
				rc.engine.Remove(o)
				res.Removed = append(res.Removed, o.ObjectID)
			}
			continue
		}
		byID[o.ObjectID] = o
	}

	for _, id := range slices.Sorted(maps.Keys(records)) {
		if protected[id] {
			continue
		}
		rec := records[id]
		o, ok := byID[id]
		if !ok {
			rc.engine.Add(Materialize(rec))
			res.Added = append(res.Added, id)
			continue
		}
		current, _ := Serialize(o)
		if reflect.DeepEqual(current, rec) {
			continue
		}
		o.SetFromRecord(rec)
		res.Updated = append(res.Updated, id)
	}

	for id, o := range byID {
		if _, ok := records[id]; ok || protected[id] {
			continue
		}
		rc.engine.Remove(o)
		res.Removed = append(res.Removed, id)
	}

	rc.engine.RequestRender()
	return res
}
