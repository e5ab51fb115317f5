package ui

import (
	"image/color"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LiveCanvas/internal/collab"
	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// BoardWidget is the desktop scene engine. The session loop mutates the
// scene through the scene.Engine methods; every RequestRender publishes a
// detached frame that the fyne thread paints.
type BoardWidget struct {
	widget.BaseWidget

	scene  *scene.Memory
	active *scene.Object

	mu    sync.Mutex
	frame frame

	closing atomic.Bool

	panX, panY float32
	ctrl       map[fyne.KeyName]bool

	// Post hands input to the session. OnContextMenu is called for a
	// secondary click with the widget-relative position.
	Post          func(ev collab.Event) bool
	OnContextMenu func(pos fyne.Position)
}

type frame struct {
	objects  []scene.Object
	active   *scene.Object
	overlay  scene.Overlay
	disposed bool
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Focusable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ desktop.Keyable = (*BoardWidget)(nil)
var _ scene.Engine = (*BoardWidget)(nil)

func NewBoardWidget() *BoardWidget {
	b := &BoardWidget{
		scene: scene.NewMemory(),
		ctrl:  make(map[fyne.KeyName]bool),
	}
	b.ExtendBaseWidget(b)
	return b
}

// Engine side. Called from the session loop only.

func (b *BoardWidget) Objects() []*scene.Object { return b.scene.Objects() }
func (b *BoardWidget) Add(o *scene.Object) { b.scene.Add(o) }
func (b *BoardWidget) Remove(o *scene.Object) { b.scene.Remove(o) }
func (b *BoardWidget) Clear() { b.scene.Clear() }
func (b *BoardWidget) HitTest(p state.Point) *scene.Object { return b.scene.HitTest(p) }
func (b *BoardWidget) ActiveObject() *scene.Object { return b.scene.ActiveObject() }
func (b *BoardWidget) SetActiveObject(o *scene.Object) { b.scene.SetActiveObject(o) }
func (b *BoardWidget) DiscardActiveObject() { b.scene.DiscardActiveObject() }

func (b *BoardWidget) SetOverlay(ov scene.Overlay) {
	b.mu.Lock()
	b.frame.overlay = ov
	b.mu.Unlock()
	b.repaint()
}

func (b *BoardWidget) RequestRender() {
	objects := b.scene.Objects()
	f := make([]scene.Object, 0, len(objects))
	for _, o := range objects {
		f = append(f, o.Copy())
	}
	var active *scene.Object
	if o := b.scene.ActiveObject(); o != nil {
		c := o.Copy()
		active = &c
	}
	b.mu.Lock()
	b.frame.objects = f
	b.frame.active = active
	b.mu.Unlock()
	b.repaint()
}

func (b *BoardWidget) Dispose() {
	b.closing.Store(true)
	b.scene.Dispose()
	b.mu.Lock()
	b.frame = frame{disposed: true}
	b.mu.Unlock()
}

// Close stops repaints before the window goes away.
func (b *BoardWidget) Close() { b.closing.Store(true) }

func (b *BoardWidget) repaint() {
	if b.closing.Load() {
		return
	}
	fyne.Do(b.Refresh)
}

func (b *BoardWidget) snapshot() frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// Input side. Called on the fyne thread.

func (b *BoardWidget) post(ev collab.Event) {
	if b.Post != nil {
		b.Post(ev)
	}
}

func (b *BoardWidget) world(pos fyne.Position) state.Point {
	return state.Point{X: float64(pos.X - b.panX), Y: float64(pos.Y - b.panY)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b)
	}
	secondary := e.Button == desktop.MouseButtonSecondary
	b.post(collab.PointerDown{Point: b.world(e.Position), Secondary: secondary})
	if secondary && b.OnContextMenu != nil {
		b.OnContextMenu(e.Position)
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.post(collab.PointerUp{})
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.post(collab.PointerMove{Point: b.world(e.Position)})
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) MouseIn(e *desktop.MouseEvent) {
	b.post(collab.PointerMove{Point: b.world(e.Position)})
}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.post(collab.PointerMove{Point: b.world(e.Position)})
}

func (b *BoardWidget) MouseOut() {
	b.post(collab.PointerLeave{})
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.panX += e.Scrolled.DX
	b.panY += e.Scrolled.DY
	b.Refresh()
}

func (b *BoardWidget) FocusGained() {}

func (b *BoardWidget) FocusLost() {
	clear(b.ctrl)
}

func (b *BoardWidget) TypedRune(r rune) {
	b.post(collab.TypedRune{Rune: r})
}

func (b *BoardWidget) TypedKey(*fyne.KeyEvent) {}

func (b *BoardWidget) KeyDown(e *fyne.KeyEvent) {
	if isModifier(e.Name) {
		b.ctrl[e.Name] = true
		return
	}
	if k, ok := b.key(e.Name); ok {
		b.post(collab.KeyDown{Key: k})
	}
}

func (b *BoardWidget) KeyUp(e *fyne.KeyEvent) {
	if isModifier(e.Name) {
		delete(b.ctrl, e.Name)
		return
	}
	if k, ok := b.key(e.Name); ok {
		b.post(collab.KeyUp{Key: k})
	}
}

func (b *BoardWidget) key(name fyne.KeyName) (collab.Key, bool) {
	n, ok := keyName(name)
	if !ok {
		return collab.Key{}, false
	}
	return collab.Key{
		Name:  n,
		Ctrl:  b.ctrl[desktop.KeyControlLeft] || b.ctrl[desktop.KeyControlRight],
		Meta:  b.ctrl[desktop.KeySuperLeft] || b.ctrl[desktop.KeySuperRight],
		Shift: b.ctrl[desktop.KeyShiftLeft] || b.ctrl[desktop.KeyShiftRight],
	}, true
}

func isModifier(name fyne.KeyName) bool {
	switch name {
	case desktop.KeyControlLeft, desktop.KeyControlRight,
		desktop.KeySuperLeft, desktop.KeySuperRight,
		desktop.KeyShiftLeft, desktop.KeyShiftRight:
		return true
	}
	return false
}

// keyName maps fyne key names to the names the cursor machine understands.
func keyName(name fyne.KeyName) (string, bool) {
	switch name {
	case fyne.KeySlash:
		return collab.KeySlash, true
	case fyne.KeyE:
		return collab.KeyE, true
	case fyne.KeyEscape:
		return collab.KeyEscape, true
	case fyne.KeyReturn, fyne.KeyEnter:
		return collab.KeyEnter, true
	case fyne.KeyDelete:
		return collab.KeyDelete, true
	case fyne.KeyBackspace:
		return collab.KeyBackspace, true
	case fyne.KeyZ:
		return collab.KeyZ, true
	case fyne.KeyY:
		return collab.KeyY, true
	case fyne.KeyC:
		return collab.KeyC, true
	case fyne.KeyV:
		return collab.KeyV, true
	}
	return "", false
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{
		board:  b,
		images: make(map[string]*canvas.Image),
	}
	r.background = canvas.NewRectangle(color.White)
	r.Refresh()
	return r
}
