package protocol

import "encoding/json"

// Inbound payloads. Message, invitation and conversation bodies are opaque:
// they were already persisted by the REST layer before the client emitted the
// relay event, so the server forwards them without inspection.

type JoinConversation struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type LeaveConversation struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type SendMessage struct {
	ConversationID string          `json:"conversationId" validate:"required"`
	Message        json.RawMessage `json:"message" validate:"required"`
}

type Typing struct {
	ConversationID string `json:"conversationId" validate:"required"`
	IsTyping       bool   `json:"isTyping"`
}

type MarkRead struct {
	ConversationID string `json:"conversationId" validate:"required"`
	MessageID      string `json:"messageId" validate:"required"`
}

type SendInvite struct {
	ReceiverID string          `json:"receiverId" validate:"required"`
	Invitation json.RawMessage `json:"invitation" validate:"required"`
}

type AcceptInvite struct {
	SenderID   string          `json:"senderId" validate:"required"`
	Invitation json.RawMessage `json:"invitation" validate:"required"`
}

type RejectInvite struct {
	SenderID   string          `json:"senderId" validate:"required"`
	Invitation json.RawMessage `json:"invitation" validate:"required"`
}

type ConversationCreated struct {
	Conversation json.RawMessage `json:"conversation" validate:"required"`
	OtherUserID  string          `json:"otherUserId" validate:"required"`
}

type CallInitiate struct {
	ReceiverID string          `json:"receiverId" validate:"required"`
	CallerInfo json.RawMessage `json:"callerInfo"`
}

type CallAccept struct {
	CallerID     string          `json:"callerId" validate:"required"`
	ReceiverInfo json.RawMessage `json:"receiverInfo"`
}

type CallReject struct {
	CallerID string `json:"callerId" validate:"required"`
}

type CallEnd struct {
	To string `json:"to" validate:"required"`
}

// Signal covers the three WebRTC relay events; the SDP or ICE body is never
// inspected, only moved.
type Signal struct {
	To        string          `json:"to" validate:"required"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Outbound payloads.

type OnlineUsersList struct {
	UserIDs []string `json:"userIds"`
}

type UserOnline struct {
	UserID string `json:"userId"`
}

type UserOffline struct {
	UserID string `json:"userId"`
}

type UserTyping struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type MessageRead struct {
	MessageID string `json:"messageId"`
	ReadBy    string `json:"readBy"`
}

type CallIncoming struct {
	CallerID   string          `json:"callerId"`
	CallerInfo json.RawMessage `json:"callerInfo,omitempty"`
}

type CallAccepted struct {
	ReceiverID   string          `json:"receiverId"`
	ReceiverInfo json.RawMessage `json:"receiverInfo,omitempty"`
}

type CallRejected struct {
	ReceiverID string `json:"receiverId"`
}

type CallEnded struct {
	From string `json:"from"`
}

type CallError struct {
	Message string `json:"message"`
}

type SignalRelay struct {
	From      string          `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}
