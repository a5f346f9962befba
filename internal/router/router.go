package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/nadirk/chatwire/internal/call"
	"github.com/nadirk/chatwire/internal/protocol"
	"github.com/nadirk/chatwire/pkg/state"
)

// ParticipantSource is the narrow collaborator used to authorize room joins
// when membership enforcement is on. The router never writes through it.
type ParticipantSource interface {
	Participants(conversationID string) ([]string, error)
}

// EventRouter validates inbound events and relays them to the right set of
// connections: conversation-scoped events fan out to the room, user-targeted
// events resolve through presence, call and WebRTC events go to the call
// manager. It persists nothing; the domain object behind each event was
// already stored by the REST layer before the client emitted it.
//
// A malformed or unknown event is dropped with a log entry. It never closes
// the sending connection and never affects any other connection.
type EventRouter struct {
	logger       *slog.Logger
	stateManager state.Manager
	calls        *call.Manager
	validate     *validator.Validate

	participants      ParticipantSource
	enforceMembership bool
}

func NewEventRouter(logger *slog.Logger, stateManager state.Manager) *EventRouter {
	return &EventRouter{
		logger:       logger.With(slog.String("component", "event_router")),
		stateManager: stateManager,
		validate:     validator.New(),
	}
}

// SetCallManager wires the call manager in after construction; the call
// manager's sender is the router itself, so the two reference each other.
func (r *EventRouter) SetCallManager(m *call.Manager) {
	r.calls = m
}

// EnforceMembership turns on join authorization against the given source.
func (r *EventRouter) EnforceMembership(src ParticipantSource) {
	r.participants = src
	r.enforceMembership = src != nil
}

// HandleMessage is the single entry point for every inbound frame. It runs on
// the connection's read loop, so events from one connection are dispatched,
// and therefore delivered, in the order they were sent.
func (r *EventRouter) HandleMessage(ctx context.Context, connID uuid.UUID, msg []byte) {
	event := gjson.GetBytes(msg, "event").String()
	if event == "" {
		r.logger.Warn("dropping frame without event name", slog.String("connID", connID.String()))
		return
	}

	conn, ok := r.stateManager.GetConnection(connID)
	if !ok || conn.UserID == "" {
		r.logger.Error("received event for unknown connection",
			slog.String("connID", connID.String()),
			slog.String("event", event),
		)
		return
	}

	var clientMsg protocol.ClientMessage
	if err := json.Unmarshal(msg, &clientMsg); err != nil {
		r.logger.Warn("dropping malformed frame",
			slog.String("connID", connID.String()),
			slog.Any("error", err),
		)
		return
	}

	r.logger.Debug("dispatching event", slog.String("event", event), slog.String("userID", conn.UserID))

	switch event {
	case protocol.EventJoinConversation:
		r.handleJoin(conn, clientMsg.Payload)
	case protocol.EventLeaveConversation:
		r.handleLeave(conn, clientMsg.Payload)
	case protocol.EventSendMessage:
		r.handleSendMessage(conn, clientMsg.Payload)
	case protocol.EventTyping:
		r.handleTyping(conn, clientMsg.Payload)
	case protocol.EventMarkRead:
		r.handleMarkRead(conn, clientMsg.Payload)
	case protocol.EventSendInvite:
		r.handleSendInvite(conn, clientMsg.Payload)
	case protocol.EventAcceptInvite:
		r.handleAcceptInvite(conn, clientMsg.Payload)
	case protocol.EventRejectInvite:
		r.handleRejectInvite(conn, clientMsg.Payload)
	case protocol.EventConversationCreated:
		r.handleConversationCreated(conn, clientMsg.Payload)

	case protocol.EventCallInitiate:
		var p protocol.CallInitiate
		if r.decode(conn, event, clientMsg.Payload, &p) {
			r.calls.Initiate(conn.UserID, p.ReceiverID, p.CallerInfo)
		}
	case protocol.EventCallAccept:
		var p protocol.CallAccept
		if r.decode(conn, event, clientMsg.Payload, &p) {
			r.calls.Accept(conn.UserID, p.CallerID, p.ReceiverInfo)
		}
	case protocol.EventCallReject:
		var p protocol.CallReject
		if r.decode(conn, event, clientMsg.Payload, &p) {
			r.calls.Reject(conn.UserID, p.CallerID)
		}
	case protocol.EventCallEnd:
		var p protocol.CallEnd
		if r.decode(conn, event, clientMsg.Payload, &p) {
			r.calls.End(conn.UserID, p.To)
		}
	case protocol.EventWebRTCOffer, protocol.EventWebRTCAnswer, protocol.EventWebRTCCandidate:
		var p protocol.Signal
		if r.decode(conn, event, clientMsg.Payload, &p) {
			r.calls.Relay(event, conn.UserID, p)
		}

	default:
		r.logger.Warn("received unknown event", slog.String("event", event), slog.String("connID", connID.String()))
	}
}

// decode unmarshals and shape-checks a payload. Returns false, after
// logging, when the payload is unusable.
func (r *EventRouter) decode(conn *state.Connection, event string, raw json.RawMessage, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("dropping event with malformed payload",
			slog.String("event", event),
			slog.String("userID", conn.UserID),
			slog.Any("error", err),
		)
		return false
	}
	if err := r.validate.Struct(dst); err != nil {
		r.logger.Warn("dropping event with missing required fields",
			slog.String("event", event),
			slog.String("userID", conn.UserID),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
