package protocol

// Inbound event names (client -> server). This is a closed vocabulary: the
// router rejects anything else.
const (
	EventJoinConversation    = "join_conversation"
	EventLeaveConversation   = "leave_conversation"
	EventSendMessage         = "send_message"
	EventTyping              = "typing"
	EventMarkRead            = "mark_read"
	EventSendInvite          = "send_invite"
	EventAcceptInvite        = "accept_invite"
	EventRejectInvite        = "reject_invite"
	EventConversationCreated = "conversation_created"

	EventCallInitiate = "call:initiate"
	EventCallAccept   = "call:accept"
	EventCallReject   = "call:reject"
	EventCallEnd      = "call:end"

	EventWebRTCOffer     = "webrtc:offer"
	EventWebRTCAnswer    = "webrtc:answer"
	EventWebRTCCandidate = "webrtc:ice-candidate"
)

// Outbound event names (server -> client).
const (
	EventOnlineUsersList = "online_users_list"
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
	EventNewMessage      = "new_message"
	EventUserTyping      = "user_typing"
	EventMessageRead     = "message_read"
	EventInviteReceived  = "invite:received"
	EventInviteAccepted  = "invite:accepted"
	EventInviteRejected  = "invite:rejected"
	EventNewConversation = "new_conversation"

	EventCallIncoming = "call:incoming"
	EventCallAccepted = "call:accepted"
	EventCallRejected = "call:rejected"
	EventCallEnded    = "call:ended"
	EventCallError    = "call:error"
)
