package scene

import "LiveCanvas/internal/state"

// Engine is the rendering and geometry engine a session draws into. All
// methods are called from the session's event loop.
type Engine interface {
	// Objects returns the objects in paint order, bottom first.
	Objects() []*Object
	Add(o *Object)
	Remove(o *Object)
	Clear()

	// HitTest returns the topmost object under p, or nil.
	HitTest(p state.Point) *Object

	ActiveObject() *Object
	SetActiveObject(o *Object)
	DiscardActiveObject()

	// SetOverlay replaces the cursors, reactions and chat drawn above the scene.
	SetOverlay(ov Overlay)

	// RequestRender schedules one repaint of the current scene.
	RequestRender()

	// Dispose releases every engine resource and listener.
	Dispose()
}

// Cursor is another connection's pointer drawn over the canvas.
type Cursor struct {
	ConnectionID int
	Color        string
	X, Y         float64
	Message      string
}

// Reaction is a flying emoji.
type Reaction struct {
	X, Y      float64
	Value     string
	Timestamp int64
}

// Chat is the local chat bubble following the pointer.
type Chat struct {
	X, Y            float64
	PreviousMessage string
	Message         string
}

// Overlay is everything drawn above the objects and never stored in the table.
type Overlay struct {
	Cursors        []Cursor
	Reactions      []Reaction
	Chat           *Chat
	ReactionPicker bool
	// ReactionCursor is the emoji following the local pointer while reacting.
	ReactionCursor string
}
