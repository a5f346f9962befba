package router

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/nadirk/chatwire/internal/call"
	"github.com/nadirk/chatwire/internal/protocol"
	"github.com/nadirk/chatwire/pkg/state"
)

// Delivery primitives. Every relay is a synchronous in-memory lookup followed
// by a buffered channel send; nothing here blocks on network I/O.

// ToUser delivers an event to the user's live connection, resolved at the
// moment of sending. Returns false when the user is offline, which callers
// treat as an expected outcome. Implements call.Sender.
func (r *EventRouter) ToUser(userID, event string, payload any) bool {
	conn, ok := r.stateManager.ResolveUser(userID)
	if !ok {
		r.logger.Debug("target user is offline", slog.String("event", event), slog.String("userID", userID))
		return false
	}
	r.push(conn.Transport, event, payload)
	return true
}

var _ call.Sender = (*EventRouter)(nil)

// BroadcastRoom delivers an event to every connection joined to the room,
// optionally excluding the originating sender.
func (r *EventRouter) BroadcastRoom(roomID, event string, payload any, exclude *uuid.UUID) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		r.logger.Error("failed to encode broadcast", slog.String("event", event), slog.Any("error", err))
		return
	}
	for _, conn := range r.stateManager.RoomConnections(roomID) {
		if exclude != nil && conn.ID == *exclude {
			continue
		}
		conn.Transport.Send(data)
	}
}

// BroadcastAll delivers an event to every registered connection. Used for
// presence notifications, which also reach the connection that caused them.
func (r *EventRouter) BroadcastAll(event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		r.logger.Error("failed to encode broadcast", slog.String("event", event), slog.Any("error", err))
		return
	}
	for _, conn := range r.stateManager.Connections() {
		conn.Transport.Send(data)
	}
}

func (r *EventRouter) push(sink state.Sink, event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		r.logger.Error("failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	sink.Send(data)
}
