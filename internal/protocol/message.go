package protocol

import "LiveCanvas/internal/state"

type MessageType string

const (
	// TypeWelcome is the first message of a connection: the caller's connection
	// id, the full table and the presence of everybody already in the room.
	TypeWelcome MessageType = "welcome"
	// TypeOps carries stamped writes to the shared table.
	TypeOps MessageType = "ops"
	// TypePresence carries one connection's presence record.
	TypePresence MessageType = "presence"
	// TypeLeave tells peers a connection is gone.
	TypeLeave MessageType = "leave"
	// TypeBroadcast carries a reaction to whoever is connected.
	TypeBroadcast MessageType = "broadcast"
)

// Message is the single JSON envelope exchanged over a room connection.
type Message struct {
	Type         MessageType                  `json:"type"`
	ConnectionID int                          `json:"connection_id,omitempty"`
	Ops          []state.Op                   `json:"ops,omitempty"`
	Snapshot     []state.Op                   `json:"snapshot,omitempty"`
	Presence     *state.PresenceRecord        `json:"presence,omitempty"`
	Peers        map[int]state.PresenceRecord `json:"peers,omitempty"`
	Reaction     *state.ReactionEvent         `json:"reaction,omitempty"`
}

// Durable reports whether losing the message would lose table state.
func (m Message) Durable() bool {
	return m.Type == TypeOps || m.Type == TypeWelcome
}
