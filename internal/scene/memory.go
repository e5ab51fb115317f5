package scene

import "LiveCanvas/internal/state"

// Memory is a headless engine. It keeps objects in a slice and counts render
// requests instead of drawing.
type Memory struct {
	objects  []*Object
	active   *Object
	overlay  Overlay
	renders  int
	disposed bool
}

// NewMemory creates an empty headless engine.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Objects() []*Object {
	out := make([]*Object, len(m.objects))
	copy(out, m.objects)
	return out
}

func (m *Memory) Add(o *Object) {
	if o == nil {
		return
	}
	m.objects = append(m.objects, o)
}

func (m *Memory) Remove(o *Object) {
	for i, cur := range m.objects {
		if cur == o {
			m.objects = append(m.objects[:i], m.objects[i+1:]...)
			break
		}
	}
	if m.active == o {
		m.active = nil
	}
}

func (m *Memory) Clear() {
	m.objects = nil
	m.active = nil
}

func (m *Memory) HitTest(p state.Point) *Object {
	for i := len(m.objects) - 1; i >= 0; i-- {
		if m.objects[i].Bounds().Pad(2).Contains(p) {
			return m.objects[i]
		}
	}
	return nil
}

func (m *Memory) ActiveObject() *Object { return m.active }

func (m *Memory) SetActiveObject(o *Object) { m.active = o }

func (m *Memory) DiscardActiveObject() { m.active = nil }

func (m *Memory) SetOverlay(ov Overlay) { m.overlay = ov }

func (m *Memory) RequestRender() { m.renders++ }

func (m *Memory) Dispose() {
	m.Clear()
	m.disposed = true
}

// Overlay returns the last overlay set.
func (m *Memory) Overlay() Overlay { return m.overlay }

// Renders returns how many renders were requested.
func (m *Memory) Renders() int { return m.renders }

// Disposed reports whether Dispose was called.
func (m *Memory) Disposed() bool { return m.disposed }

// IDs returns the object ids in paint order.
func (m *Memory) IDs() []string {
	ids := make([]string, 0, len(m.objects))
	for _, o := range m.objects {
		ids = append(ids, o.ObjectID)
	}
	return ids
}

// Find returns the object tagged with id.
func (m *Memory) Find(id string) *Object {
	for _, o := range m.objects {
		if o.ObjectID == id {
			return o
		}
	}
	return nil
}
