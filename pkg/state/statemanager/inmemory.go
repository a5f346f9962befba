package statemanager

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nadirk/chatwire/pkg/state"
)

var ErrUnknownConnection = errors.New("connection is not registered")

// InMemoryManager holds all presence and room state for a single server
// process. Presence is a dual index: users forward (userID -> connID) and
// the reverse direction through Connection.UserID, because deregistration is
// naturally keyed by connection id.
//
// A single mutex guards every map; each operation is a handful of map
// lookups, so there is nothing to gain from finer-grained locking and a lot
// of lost-update potential to lose.
type InMemoryManager struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*state.Connection
	users map[string]uuid.UUID
	rooms map[string]map[uuid.UUID]*state.Connection

	logger *slog.Logger
}

func NewInMemoryManager(logger *slog.Logger) *InMemoryManager {
	return &InMemoryManager{
		conns:  make(map[uuid.UUID]*state.Connection),
		users:  make(map[string]uuid.UUID),
		rooms:  make(map[string]map[uuid.UUID]*state.Connection),
		logger: logger.With(slog.String("component", "state_manager_inmemory")),
	}
}

// compile-time check to ensure InMemoryManager implements Manager.
var _ state.Manager = (*InMemoryManager)(nil)

func (m *InMemoryManager) RegisterConnection(connID uuid.UUID, sink state.Sink, ipAddr string) (*state.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.conns[connID]; exists {
		return nil, errors.New("connection is already registered")
	}
	conn := &state.Connection{
		ID:        connID,
		IPAddress: ipAddr,
		Transport: sink,
		Rooms:     make(map[string]struct{}),
		CreatedAt: time.Now(),
	}
	m.conns[connID] = conn
	m.logger.Debug("connection registered", slog.String("connID", connID.String()))
	return conn, nil
}

func (m *InMemoryManager) DeregisterConnection(connID uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		// already deregistered, or the handshake never completed
		return "", false
	}
	delete(m.conns, connID)

	for roomID := range conn.Rooms {
		m.dropFromRoom(connID, roomID)
	}

	wentOffline := false
	if conn.UserID != "" {
		// A newer connection may have superseded this one; only clear the
		// presence entry if it still points at the connection going away.
		if live, ok := m.users[conn.UserID]; ok && live == connID {
			delete(m.users, conn.UserID)
			wentOffline = true
		}
	}

	m.logger.Debug("connection deregistered",
		slog.String("connID", connID.String()),
		slog.String("userID", conn.UserID),
		slog.Bool("wentOffline", wentOffline),
	)
	return conn.UserID, wentOffline
}

func (m *InMemoryManager) GetConnection(connID uuid.UUID) (*state.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[connID]
	return conn, ok
}

func (m *InMemoryManager) Connections() []*state.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Values(m.conns)
}

// --- Presence ---

func (m *InMemoryManager) BindUser(connID uuid.UUID, userID string) (*state.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return nil, ErrUnknownConnection
	}

	var superseded *state.Connection
	if oldID, ok := m.users[userID]; ok && oldID != connID {
		// last-connected-wins: the new socket takes over the presence entry
		superseded = m.conns[oldID]
	}

	conn.UserID = userID
	m.users[userID] = connID

	m.logger.Debug("user bound to connection",
		slog.String("connID", connID.String()),
		slog.String("userID", userID),
		slog.Bool("superseded", superseded != nil),
	)
	return superseded, nil
}

func (m *InMemoryManager) ResolveUser(userID string) (*state.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	connID, ok := m.users[userID]
	if !ok {
		return nil, false
	}
	conn, ok := m.conns[connID]
	return conn, ok
}

func (m *InMemoryManager) OnlineUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Keys(m.users)
}

// --- Room Membership ---

func (m *InMemoryManager) Join(connID uuid.UUID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}

	room, exists := m.rooms[roomID]
	if !exists {
		room = make(map[uuid.UUID]*state.Connection)
		m.rooms[roomID] = room
	}
	room[connID] = conn
	conn.Rooms[roomID] = struct{}{}

	m.logger.Debug("connection joined room", slog.String("connID", connID.String()), slog.String("roomID", roomID))
	return nil
}

func (m *InMemoryManager) Leave(connID uuid.UUID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.conns[connID]; ok {
		delete(conn.Rooms, roomID)
	}
	m.dropFromRoom(connID, roomID)
}

func (m *InMemoryManager) RoomConnections(roomID string) []*state.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	return lo.Values(room)
}

// dropFromRoom removes the membership entry and, for memory hygiene, the
// room itself once empty. Callers must hold the write lock.
func (m *InMemoryManager) dropFromRoom(connID uuid.UUID, roomID string) {
	room, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(m.rooms, roomID)
		m.logger.Debug("removed empty room", slog.String("roomID", roomID))
	}
}
