package collab

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// Tool is the toolbar selection.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolRectangle Tool = "rectangle"
	ToolEllipse   Tool = "circle"
	ToolTriangle  Tool = "triangle"
	ToolLine      Tool = "line"
	ToolFreeform  Tool = "freeform"
	ToolText      Tool = "text"
	ToolImage     Tool = "image"
)

// Tools lists the toolbar entries in display order.
var Tools = []Tool{ToolSelect, ToolRectangle, ToolEllipse, ToolTriangle, ToolLine, ToolFreeform, ToolText, ToolImage}

// Kind returns the shape kind a drawing tool produces.
func (t Tool) Kind() (state.ShapeKind, bool) {
	switch t {
	case ToolRectangle:
		return state.KindRectangle, true
	case ToolEllipse:
		return state.KindEllipse, true
	case ToolTriangle:
		return state.KindTriangle, true
	case ToolLine:
		return state.KindLine, true
	case ToolFreeform:
		return state.KindPath, true
	case ToolText:
		return state.KindText, true
	case ToolImage:
		return state.KindImage, true
	}
	return "", false
}

// Phase is the pointer gesture in progress.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDrawing
	PhaseDragging
	PhaseResizing
)

func (p Phase) String() string {
	switch p {
	case PhaseDrawing:
		return "drawing"
	case PhaseDragging:
		return "dragging"
	case PhaseResizing:
		return "resizing"
	}
	return "idle"
}

const (
	defaultFill      = "#aabbcc"
	defaultFont      = "Helvetica"
	defaultFontSize  = 36
	defaultWeight    = "400"
	placeholderText  = "Tap to Type"
	handleRadius     = 8
	pasteOffset      = 20
	importedMaxSide  = 200
	importedPosition = 100
)

// Attributes is the selected object's editable properties as shown in the
// side panel.
type Attributes struct {
	Width      string
	Height     string
	FontSize   string
	FontFamily string
	FontWeight string
	Fill       string
	Stroke     string
}

// InteractionSession is a read-only view of the gesture state.
type InteractionSession struct {
	Phase         Phase
	Tool          Tool
	ActiveShapeID string
	EditingTextID string
}

// Interaction turns pointer input into engine objects and commits them
// through the store when a gesture ends.
type Interaction struct {
	engine scene.Engine
	store  *ShapeStore
	newID  func() string

	tool    Tool
	phase   Phase
	active  *scene.Object
	editing *scene.Object
	origin  state.Point
	last    state.Point
	moved   bool
	attrs   Attributes

	clipboard []state.ShapeRecord
	dirty     bool
}

// NewInteraction creates an idle machine with the select tool. newID may be
// nil, in which case random UUIDs are used.
func NewInteraction(engine scene.Engine, store *ShapeStore, newID func() string) *Interaction {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Interaction{engine: engine, store: store, newID: newID, tool: ToolSelect}
}

func (m *Interaction) Tool() Tool { return m.tool }

func (m *Interaction) Phase() Phase { return m.phase }

func (m *Interaction) Attributes() Attributes { return m.attrs }

func (m *Interaction) EditingText() bool { return m.editing != nil }

// Session returns a snapshot of the gesture state.
func (m *Interaction) Session() InteractionSession {
	s := InteractionSession{Phase: m.phase, Tool: m.tool}
	if m.active != nil {
		s.ActiveShapeID = m.active.ObjectID
	}
	if m.editing != nil {
		s.EditingTextID = m.editing.ObjectID
	}
	return s
}

// Protected returns the ids reconciliation must leave alone: the object
// owned by the current gesture and the text being edited.
func (m *Interaction) Protected() map[string]bool {
	ids := make(map[string]bool, 2)
	if m.active != nil {
		ids[m.active.ObjectID] = true
	}
	if m.editing != nil {
		ids[m.editing.ObjectID] = true
	}
	return ids
}

// TakeDirty reports whether the scene may have drifted from the table
// without a table change, and resets the flag.
func (m *Interaction) TakeDirty() bool {
	d := m.dirty
	m.dirty = false
	return d
}

// SelectTool switches tools. Switching ends any text editing.
func (m *Interaction) SelectTool(t Tool) {
	if m.editing != nil {
		m.FinishEditing()
	}
	m.tool = t
	if t != ToolSelect {
		m.engine.DiscardActiveObject()
		m.attrs = Attributes{}
	}
}

// PointerDown starts a gesture at p.
func (m *Interaction) PointerDown(p state.Point) {
	if m.phase != PhaseIdle {
		return
	}
	if m.editing != nil {
		m.FinishEditing()
		return
	}
	if kind, ok := m.tool.Kind(); ok && kind != state.KindImage {
		o := m.newShape(kind, p)
		m.engine.Add(o)
		m.active = o
		m.origin = p
		m.phase = PhaseDrawing
		m.engine.RequestRender()
		return
	}

	hit := m.engine.HitTest(p)
	if hit == nil {
		m.engine.DiscardActiveObject()
		m.attrs = Attributes{}
		m.engine.RequestRender()
		return
	}
	m.engine.SetActiveObject(hit)
	m.SelectionCreated(hit)
	m.active = hit
	m.last = p
	m.moved = false
	m.phase = PhaseDragging
	if dx, dy := p.X-hit.Bounds().Corner().X, p.Y-hit.Bounds().Corner().Y; math.Hypot(dx, dy) <= handleRadius {
		m.phase = PhaseResizing
	}
	m.engine.RequestRender()
}

// PointerMove updates the gesture in progress. It never writes the table.
func (m *Interaction) PointerMove(p state.Point) {
	switch m.phase {
	case PhaseDrawing:
		sizeNewShape(m.active, m.origin, p)
	case PhaseDragging:
		m.active.Translate(p.X-m.last.X, p.Y-m.last.Y)
		m.last = p
		m.moved = true
	case PhaseResizing:
		resizeTo(m.active, p)
		m.moved = true
	default:
		return
	}
	m.engine.RequestRender()
}

// PointerUp ends the gesture and commits its object.
func (m *Interaction) PointerUp() {
	o := m.active
	phase := m.phase
	m.phase = PhaseIdle
	m.active = nil
	if o != nil {
		// remote writes to o were skipped while it was held
		m.dirty = true
	}

	switch phase {
	case PhaseDrawing:
		if o.Kind == state.KindPath && len(o.Points) < 2 {
			m.engine.Remove(o)
			m.engine.RequestRender()
			return
		}
		m.store.Commit(o)
		if o.Kind == state.KindText {
			m.editing = o
			m.engine.SetActiveObject(o)
			m.SelectionCreated(o)
		}
		if m.tool != ToolFreeform {
			m.tool = ToolSelect
		}
	case PhaseDragging, PhaseResizing:
		if m.moved {
			m.ObjectModified(o)
		}
		m.SelectionCreated(o)
	}
}

// ObjectModified commits an object changed by the engine itself.
func (m *Interaction) ObjectModified(o *scene.Object) bool {
	return m.store.Commit(o)
}

// SelectionCreated fills the attributes panel from o.
func (m *Interaction) SelectionCreated(o *scene.Object) Attributes {
	if o == nil {
		m.attrs = Attributes{}
		return m.attrs
	}
	b := o.Bounds()
	m.attrs = Attributes{
		Width:      formatNumber(b.Width),
		Height:     formatNumber(b.Height),
		FontSize:   formatNumber(o.FontSize),
		FontFamily: o.FontFamily,
		FontWeight: o.FontWeight,
		Fill:       o.Fill,
		Stroke:     o.Stroke,
	}
	return m.attrs
}

// ModifyShape sets one property of the selected object and commits it.
func (m *Interaction) ModifyShape(property, value string) bool {
	o := m.engine.ActiveObject()
	if o == nil {
		return false
	}
	switch property {
	case "width", "height":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 {
			return false
		}
		scaleToSize(o, property, v)
	case "fontSize":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 {
			return false
		}
		o.FontSize = v
	case "fontFamily":
		o.FontFamily = value
	case "fontWeight":
		o.FontWeight = value
	case "fill":
		o.Fill = value
	case "stroke":
		o.Stroke = value
	default:
		return false
	}
	m.SelectionCreated(o)
	m.engine.RequestRender()
	return m.store.Commit(o)
}

// DeleteSelection removes the selected object from the table. The scene
// follows on the next reconciliation.
func (m *Interaction) DeleteSelection() bool {
	o := m.engine.ActiveObject()
	if o == nil {
		return false
	}
	if m.editing == o {
		m.editing = nil
	}
	m.engine.DiscardActiveObject()
	m.attrs = Attributes{}
	m.dirty = true
	return m.store.Delete(o.ObjectID)
}

// Reset clears the canvas for everyone.
func (m *Interaction) Reset() bool {
	m.phase = PhaseIdle
	m.active = nil
	m.editing = nil
	m.attrs = Attributes{}
	m.engine.DiscardActiveObject()
	m.dirty = true
	return m.store.Clear()
}

// TypeRune appends r to the text under edit.
func (m *Interaction) TypeRune(r rune) bool {
	if m.editing == nil {
		return false
	}
	if m.editing.Text == placeholderText {
		m.editing.Text = ""
	}
	m.editing.Text += string(r)
	m.engine.RequestRender()
	return true
}

// Backspace removes the last rune of the text under edit.
func (m *Interaction) Backspace() bool {
	if m.editing == nil {
		return false
	}
	runes := []rune(m.editing.Text)
	if len(runes) > 0 {
		m.editing.Text = string(runes[:len(runes)-1])
	}
	m.engine.RequestRender()
	return true
}

// EditText replaces the text under edit.
func (m *Interaction) EditText(text string) bool {
	if m.editing == nil {
		return false
	}
	m.editing.Text = text
	m.engine.RequestRender()
	return true
}

// FinishEditing commits the text under edit and releases it.
func (m *Interaction) FinishEditing() bool {
	o := m.editing
	if o == nil {
		return false
	}
	m.editing = nil
	m.SelectionCreated(o)
	m.dirty = true
	return m.store.Commit(o)
}

// Copy keeps the selected object for a later paste.
func (m *Interaction) Copy() bool {
	o := m.engine.ActiveObject()
	rec, ok := Serialize(o)
	if !ok {
		return false
	}
	m.clipboard = []state.ShapeRecord{rec}
	return true
}

// Paste writes the clipboard back under fresh ids, shifted down and right.
func (m *Interaction) Paste() bool {
	if len(m.clipboard) == 0 {
		return false
	}
	objects := make([]*scene.Object, 0, len(m.clipboard))
	for _, rec := range m.clipboard {
		o := Materialize(rec)
		o.ObjectID = m.newID()
		o.Translate(pasteOffset, pasteOffset)
		objects = append(objects, o)
	}
	m.engine.DiscardActiveObject()
	return m.store.CommitAll(objects)
}

// ImportImage places an image no larger than 200 units on either side.
func (m *Interaction) ImportImage(src string, width, height float64) bool {
	if src == "" || width <= 0 || height <= 0 {
		return false
	}
	s := math.Min(1, importedMaxSide/math.Max(width, height))
	o := &scene.Object{
		ObjectID: m.newID(),
		Kind:     state.KindImage,
		Left:     importedPosition,
		Top:      importedPosition,
		Width:    width,
		Height:   height,
		ScaleX:   s,
		ScaleY:   s,
		Src:      src,
	}
	m.tool = ToolSelect
	return m.store.Commit(o)
}

func (m *Interaction) newShape(kind state.ShapeKind, p state.Point) *scene.Object {
	o := &scene.Object{ObjectID: m.newID(), Kind: kind, Left: p.X, Top: p.Y}
	switch kind {
	case state.KindRectangle, state.KindTriangle:
		o.Width, o.Height = 100, 100
		o.Fill = defaultFill
	case state.KindEllipse:
		o.Radius = 100
		o.Fill = defaultFill
	case state.KindLine:
		o.X1, o.Y1, o.X2, o.Y2 = p.X, p.Y, p.X+100, p.Y+100
		o.Stroke = defaultFill
		o.StrokeWidth = 2
	case state.KindPath:
		o.Points = []state.Point{p}
		o.Stroke = defaultFill
		o.StrokeWidth = 2
	case state.KindText:
		o.Text = placeholderText
		o.Fill = defaultFill
		o.FontFamily = defaultFont
		o.FontSize = defaultFontSize
		o.FontWeight = defaultWeight
	}
	return o
}

func sizeNewShape(o *scene.Object, origin, p state.Point) {
	switch o.Kind {
	case state.KindRectangle, state.KindTriangle:
		o.Left, o.Width = span(origin.X, p.X)
		o.Top, o.Height = span(origin.Y, p.Y)
	case state.KindEllipse:
		o.Radius = math.Abs(p.X-origin.X) / 2
	case state.KindLine:
		o.X2, o.Y2 = p.X, p.Y
	case state.KindPath:
		o.Points = append(o.Points, p)
	}
}

func resizeTo(o *scene.Object, p state.Point) {
	b := o.Bounds()
	w := math.Max(1, p.X-b.X)
	h := math.Max(1, p.Y-b.Y)
	switch o.Kind {
	case state.KindRectangle, state.KindTriangle:
		o.Width, o.Height = w/scaleOf(o.ScaleX), h/scaleOf(o.ScaleY)
	case state.KindEllipse:
		o.Radius = math.Max(w/scaleOf(o.ScaleX), h/scaleOf(o.ScaleY)) / 2
	case state.KindLine:
		o.X2, o.Y2 = p.X, p.Y
	default:
		scaleToSize(o, "width", w)
		scaleToSize(o, "height", h)
	}
}

func scaleToSize(o *scene.Object, property string, v float64) {
	b := o.Bounds()
	if o.Kind == state.KindLine || o.Kind == state.KindPath {
		fx, fy := 1.0, 1.0
		if property == "width" && b.Width > 0 {
			fx = v / b.Width
		} else if property == "height" && b.Height > 0 {
			fy = v / b.Height
		}
		scalePoints(o, b.X, b.Y, fx, fy)
		return
	}
	if property == "width" {
		if base := b.Width / scaleOf(o.ScaleX); base > 0 {
			o.ScaleX = v / base
		}
		return
	}
	if base := b.Height / scaleOf(o.ScaleY); base > 0 {
		o.ScaleY = v / base
	}
}

func scalePoints(o *scene.Object, x0, y0, fx, fy float64) {
	o.X1, o.X2 = x0+(o.X1-x0)*fx, x0+(o.X2-x0)*fx
	o.Y1, o.Y2 = y0+(o.Y1-y0)*fy, y0+(o.Y2-y0)*fy
	for i := range o.Points {
		o.Points[i].X = x0 + (o.Points[i].X-x0)*fx
		o.Points[i].Y = y0 + (o.Points[i].Y-y0)*fy
	}
}

func span(a, b float64) (float64, float64) {
	return math.Min(a, b), math.Abs(b - a)
}

func scaleOf(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
