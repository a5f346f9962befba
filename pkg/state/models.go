package state

import (
	"time"

	"github.com/google/uuid"
)

// Sink is the write side of a live connection, as the state layer sees it.
// Declared here so registries can be exercised in tests without a real
// WebSocket behind them; *transport.Connection satisfies it.
type Sink interface {
	Send(message []byte)
	Close(err error)
}

// Connection is the canonical representation of a single transport-layer
// session. UserID is set once by BindUser after handshake authentication and
// never re-resolved for the connection's lifetime.
type Connection struct {
	ID        uuid.UUID
	IPAddress string
	Transport Sink
	UserID    string
	Rooms     map[string]struct{} // conversation rooms this connection joined
	CreatedAt time.Time
}
