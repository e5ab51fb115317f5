package collab

import (
	"time"

	"LiveCanvas/internal/protocol"
	"LiveCanvas/internal/scene"
	"LiveCanvas/internal/state"
)

// Event is anything the session loop reacts to: user input, changes pushed
// by the room, and timer ticks.
type Event interface {
	isEvent()
}

type PointerDown struct {
	Point     state.Point
	Secondary bool
}

type PointerMove struct{ Point state.Point }

type PointerUp struct{}

type PointerLeave struct{}

type KeyDown struct{ Key Key }

type KeyUp struct{ Key Key }

type TypedRune struct{ Rune rune }

type ToolSelected struct{ Tool Tool }

// ObjectModified reports an object the engine transformed on its own.
type ObjectModified struct{ Object *scene.Object }

// ShapeModified is an edit from the attributes panel.
type ShapeModified struct {
	Property string
	Value    string
}

type TextEdited struct{ Text string }

type ReactionChosen struct{ Value string }

type MenuSelected struct{ Name string }

// ImageImported carries a picked image as a data URI with its pixel size.
type ImageImported struct {
	Src    string
	Width  float64
	Height float64
}

// Welcome is the room's greeting after (re)connecting.
type Welcome struct {
	Self     int
	Snapshot []state.Op
	Peers    map[int]state.PresenceRecord
}

type RemoteOps struct{ Ops []state.Op }

type PresenceChanged struct {
	ConnectionID int
	Presence     state.PresenceRecord
}

type PeerLeft struct{ ConnectionID int }

type ReactionReceived struct{ Reaction state.ReactionEvent }

type Disconnected struct{ Err error }

// EmitTick drives reaction emission while the pointer is held.
type EmitTick struct{ Now time.Time }

// PruneTick drops expired reactions.
type PruneTick struct{ Now time.Time }

func (PointerDown) isEvent()      {}
func (PointerMove) isEvent()      {}
func (PointerUp) isEvent()        {}
func (PointerLeave) isEvent()     {}
func (KeyDown) isEvent()          {}
func (KeyUp) isEvent()            {}
func (TypedRune) isEvent()        {}
func (ToolSelected) isEvent()     {}
func (ObjectModified) isEvent()   {}
func (ShapeModified) isEvent()    {}
func (TextEdited) isEvent()       {}
func (ReactionChosen) isEvent()   {}
func (MenuSelected) isEvent()     {}
func (ImageImported) isEvent()    {}
func (Welcome) isEvent()          {}
func (RemoteOps) isEvent()        {}
func (PresenceChanged) isEvent()  {}
func (PeerLeft) isEvent()         {}
func (ReactionReceived) isEvent() {}
func (Disconnected) isEvent()     {}
func (EmitTick) isEvent()         {}
func (PruneTick) isEvent()        {}

// EventFor translates a message from the room into a session event.
func EventFor(msg protocol.Message) (Event, bool) {
	switch msg.Type {
	case protocol.TypeWelcome:
		return Welcome{Self: msg.ConnectionID, Snapshot: msg.Snapshot, Peers: msg.Peers}, true
	case protocol.TypeOps:
		return RemoteOps{Ops: msg.Ops}, true
	case protocol.TypePresence:
		if msg.Presence == nil {
			return nil, false
		}
		return PresenceChanged{ConnectionID: msg.ConnectionID, Presence: *msg.Presence}, true
	case protocol.TypeLeave:
		return PeerLeft{ConnectionID: msg.ConnectionID}, true
	case protocol.TypeBroadcast:
		if msg.Reaction == nil {
			return nil, false
		}
		return ReactionReceived{Reaction: *msg.Reaction}, true
	}
	return nil, false
}
