package statemanager_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/nadirk/chatwire/pkg/state/statemanager"
)

// --- Test Suite Setup ---

func newTestLogger() *slog.Logger {
	// Discard logger output during tests by setting a high level
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func newTestManager() *statemanager.InMemoryManager {
	return statemanager.NewInMemoryManager(newTestLogger())
}

type nopSink struct{}

func (nopSink) Send([]byte) {}
func (nopSink) Close(error) {}

func register(t *testing.T, m *statemanager.InMemoryManager) uuid.UUID {
	t.Helper()
	connID := uuid.New()
	if _, err := m.RegisterConnection(connID, nopSink{}, "127.0.0.1"); err != nil {
		t.Fatalf("RegisterConnection failed: %v", err)
	}
	return connID
}

// --- Connection and Presence Tests ---

func TestConnectionLifecycle(t *testing.T) {
	m := newTestManager()
	connID := register(t, m)

	conn, found := m.GetConnection(connID)
	if !found {
		t.Fatal("GetConnection failed to find registered connection")
	}
	if conn.ID != connID {
		t.Errorf("Retrieved connection ID mismatch")
	}

	m.DeregisterConnection(connID)
	if _, found = m.GetConnection(connID); found {
		t.Error("Found connection after it should have been deregistered")
	}

	// deregistering twice is a no-op, not an error
	userID, wentOffline := m.DeregisterConnection(connID)
	if userID != "" || wentOffline {
		t.Errorf("Expected no-op deregister, got userID=%q wentOffline=%v", userID, wentOffline)
	}
}

func TestPresenceRoundTrip(t *testing.T) {
	m := newTestManager()
	connID := register(t, m)

	if _, err := m.BindUser(connID, "user-1"); err != nil {
		t.Fatalf("BindUser failed: %v", err)
	}

	conn, online := m.ResolveUser("user-1")
	if !online {
		t.Fatal("Expected user-1 to be online after bind")
	}
	if conn.ID != connID {
		t.Errorf("Expected resolved connection %s, got %s", connID, conn.ID)
	}

	userID, wentOffline := m.DeregisterConnection(connID)
	if userID != "user-1" || !wentOffline {
		t.Errorf("Expected user-1 to go offline, got userID=%q wentOffline=%v", userID, wentOffline)
	}
	if _, online = m.ResolveUser("user-1"); online {
		t.Error("Expected user-1 to be offline after deregister")
	}
}

func TestPresenceLastConnectedWins(t *testing.T) {
	m := newTestManager()
	conn1 := register(t, m)
	conn2 := register(t, m)

	if _, err := m.BindUser(conn1, "user-1"); err != nil {
		t.Fatalf("BindUser (1) failed: %v", err)
	}
	superseded, err := m.BindUser(conn2, "user-1")
	if err != nil {
		t.Fatalf("BindUser (2) failed: %v", err)
	}
	if superseded == nil || superseded.ID != conn1 {
		t.Fatalf("Expected conn1 to be superseded, got %v", superseded)
	}

	conn, online := m.ResolveUser("user-1")
	if !online || conn.ID != conn2 {
		t.Fatalf("Expected user-1 resolved to conn2")
	}

	// The stale socket disconnecting must not mark the user offline: the
	// presence entry now belongs to conn2.
	userID, wentOffline := m.DeregisterConnection(conn1)
	if userID != "user-1" {
		t.Errorf("Expected owning user to be reported, got %q", userID)
	}
	if wentOffline {
		t.Error("Stale connection disconnect erroneously marked user offline")
	}
	if _, online = m.ResolveUser("user-1"); !online {
		t.Error("Expected user-1 to still be online through conn2")
	}
}

func TestOnlineUsersSnapshot(t *testing.T) {
	m := newTestManager()
	conn1 := register(t, m)
	conn2 := register(t, m)
	m.BindUser(conn1, "user-a")
	m.BindUser(conn2, "user-b")

	users := m.OnlineUsers()
	if len(users) != 2 {
		t.Fatalf("Expected 2 online users, got %d", len(users))
	}
	seen := map[string]bool{}
	for _, u := range users {
		seen[u] = true
	}
	if !seen["user-a"] || !seen["user-b"] {
		t.Errorf("Snapshot missing users: %v", users)
	}
}

// --- Room Management Tests ---

func TestRoomMembership(t *testing.T) {
	m := newTestManager()
	conn1 := register(t, m)
	conn2 := register(t, m)
	roomID := "conv-1"

	if err := m.Join(conn1, roomID); err != nil {
		t.Fatalf("Join (1) failed: %v", err)
	}
	if err := m.Join(conn2, roomID); err != nil {
		t.Fatalf("Join (2) failed: %v", err)
	}

	members := m.RoomConnections(roomID)
	if len(members) != 2 {
		t.Fatalf("Expected 2 members in room, got %d", len(members))
	}

	m.Leave(conn1, roomID)
	members = m.RoomConnections(roomID)
	if len(members) != 1 {
		t.Fatalf("Expected 1 member after leave, got %d", len(members))
	}
	if members[0].ID != conn2 {
		t.Errorf("Expected remaining member to be conn2")
	}

	// Test empty room cleanup
	m.Leave(conn2, roomID)
	if got := m.RoomConnections(roomID); got != nil {
		t.Errorf("Expected nil for empty room, got %v", got)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	m := newTestManager()
	connID := register(t, m)
	roomID := "conv-1"

	m.Join(connID, roomID)
	m.Join(connID, roomID)

	if got := len(m.RoomConnections(roomID)); got != 1 {
		t.Fatalf("Expected a single membership entry after double join, got %d", got)
	}

	// one leave fully removes the membership
	m.Leave(connID, roomID)
	if got := m.RoomConnections(roomID); got != nil {
		t.Errorf("Expected membership gone after single leave, got %v", got)
	}
}

func TestDisconnectLeavesAllRooms(t *testing.T) {
	m := newTestManager()
	conn1 := register(t, m)
	conn2 := register(t, m)
	m.BindUser(conn1, "user-1")

	m.Join(conn1, "conv-a")
	m.Join(conn1, "conv-b")
	m.Join(conn2, "conv-a")

	m.DeregisterConnection(conn1)

	members := m.RoomConnections("conv-a")
	if len(members) != 1 || members[0].ID != conn2 {
		t.Errorf("Expected only conn2 left in conv-a, got %d members", len(members))
	}
	if got := m.RoomConnections("conv-b"); got != nil {
		t.Errorf("Expected conv-b removed after its only member disconnected, got %v", got)
	}
}

func TestJoinUnknownConnection(t *testing.T) {
	m := newTestManager()
	if err := m.Join(uuid.New(), "conv-1"); err == nil {
		t.Error("Expected error joining with unregistered connection")
	}
}

func TestBindUnknownConnection(t *testing.T) {
	m := newTestManager()
	if _, err := m.BindUser(uuid.New(), "user-1"); err == nil {
		t.Error("Expected error binding user to unregistered connection")
	}
}
