package state

import (
	"github.com/google/uuid"
)

type Manager interface {
	// --- Connection Lifecycle ---
	RegisterConnection(connID uuid.UUID, sink Sink, ipAddr string) (*Connection, error)
	// DeregisterConnection removes the connection, its room memberships and,
	// when this connection is still the user's live one, their presence entry.
	// Returns the owning user id and whether that user actually went offline.
	// Unknown connection ids are a no-op, not an error.
	DeregisterConnection(connID uuid.UUID) (userID string, wentOffline bool)
	GetConnection(connID uuid.UUID) (*Connection, bool)
	Connections() []*Connection

	// --- Presence ---
	// BindUser links an authenticated user to a connection. A user has at
	// most one live connection: binding again overwrites the old mapping
	// (last-connected-wins) and returns the superseded connection so the
	// caller can close it.
	BindUser(connID uuid.UUID, userID string) (superseded *Connection, err error)
	// ResolveUser returns the user's live connection. Absence means the user
	// is offline, which callers must treat as an expected outcome.
	ResolveUser(userID string) (*Connection, bool)
	OnlineUsers() []string

	// --- Room Membership ---
	// Join adds the connection to a conversation room, creating the room on
	// first join. Joining twice is the same as joining once.
	Join(connID uuid.UUID, roomID string) error
	Leave(connID uuid.UUID, roomID string)
	RoomConnections(roomID string) []*Connection
}
