package router

import (
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/nadirk/chatwire/internal/protocol"
	"github.com/nadirk/chatwire/pkg/state"
)

func (r *EventRouter) handleJoin(conn *state.Connection, raw json.RawMessage) {
	var p protocol.JoinConversation
	if !r.decode(conn, protocol.EventJoinConversation, raw, &p) {
		return
	}

	if r.enforceMembership {
		members, err := r.participants.Participants(p.ConversationID)
		if err != nil {
			r.logger.Error("participant lookup failed; refusing join",
				slog.String("conversationID", p.ConversationID),
				slog.Any("error", err),
			)
			return
		}
		if !slices.Contains(members, conn.UserID) {
			r.logger.Warn("refusing join: user is not a participant",
				slog.String("userID", conn.UserID),
				slog.String("conversationID", p.ConversationID),
			)
			return
		}
	}

	if err := r.stateManager.Join(conn.ID, p.ConversationID); err != nil {
		r.logger.Warn("join failed", slog.String("conversationID", p.ConversationID), slog.Any("error", err))
	}
}

func (r *EventRouter) handleLeave(conn *state.Connection, raw json.RawMessage) {
	var p protocol.LeaveConversation
	if !r.decode(conn, protocol.EventLeaveConversation, raw, &p) {
		return
	}
	r.stateManager.Leave(conn.ID, p.ConversationID)
}

// handleSendMessage fans the already-persisted message out to the room. The
// sender is not excluded: they hold the message locally anyway and the client
// upserts by id, so the duplicate is harmless.
func (r *EventRouter) handleSendMessage(conn *state.Connection, raw json.RawMessage) {
	var p protocol.SendMessage
	if !r.decode(conn, protocol.EventSendMessage, raw, &p) {
		return
	}
	r.BroadcastRoom(p.ConversationID, protocol.EventNewMessage, p.Message, nil)
}

func (r *EventRouter) handleTyping(conn *state.Connection, raw json.RawMessage) {
	var p protocol.Typing
	if !r.decode(conn, protocol.EventTyping, raw, &p) {
		return
	}
	// the typer doesn't need their own indicator echoed back
	r.BroadcastRoom(p.ConversationID, protocol.EventUserTyping, protocol.UserTyping{
		UserID:   conn.UserID,
		IsTyping: p.IsTyping,
	}, &conn.ID)
}

func (r *EventRouter) handleMarkRead(conn *state.Connection, raw json.RawMessage) {
	var p protocol.MarkRead
	if !r.decode(conn, protocol.EventMarkRead, raw, &p) {
		return
	}
	r.BroadcastRoom(p.ConversationID, protocol.EventMessageRead, protocol.MessageRead{
		MessageID: p.MessageID,
		ReadBy:    conn.UserID,
	}, &conn.ID)
}

// Invitation and conversation events are user-targeted: if the target is
// offline the event is dropped and they pick the state change up from the
// REST layer on their next query. Best-effort notification, not delivery.

func (r *EventRouter) handleSendInvite(conn *state.Connection, raw json.RawMessage) {
	var p protocol.SendInvite
	if !r.decode(conn, protocol.EventSendInvite, raw, &p) {
		return
	}
	r.ToUser(p.ReceiverID, protocol.EventInviteReceived, p.Invitation)
}

func (r *EventRouter) handleAcceptInvite(conn *state.Connection, raw json.RawMessage) {
	var p protocol.AcceptInvite
	if !r.decode(conn, protocol.EventAcceptInvite, raw, &p) {
		return
	}
	r.ToUser(p.SenderID, protocol.EventInviteAccepted, p.Invitation)
}

func (r *EventRouter) handleRejectInvite(conn *state.Connection, raw json.RawMessage) {
	var p protocol.RejectInvite
	if !r.decode(conn, protocol.EventRejectInvite, raw, &p) {
		return
	}
	r.ToUser(p.SenderID, protocol.EventInviteRejected, p.Invitation)
}

func (r *EventRouter) handleConversationCreated(conn *state.Connection, raw json.RawMessage) {
	var p protocol.ConversationCreated
	if !r.decode(conn, protocol.EventConversationCreated, raw, &p) {
		return
	}
	r.ToUser(p.OtherUserID, protocol.EventNewConversation, p.Conversation)
}
