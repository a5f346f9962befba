package call

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nadirk/chatwire/internal/protocol"
)

// Phase is the state of one side of a call attempt.
type Phase string

const (
	PhaseCalling   Phase = "calling"
	PhaseReceiving Phase = "receiving"
	PhaseOngoing   Phase = "ongoing"
)

const (
	offlineMessage = "User is offline"
	busyMessage    = "User is busy"
	inCallMessage  = "Already in a call"
)

// Sender delivers an event to a user's live connection. Implementations must
// resolve the destination user at send time, not earlier: the peer may have
// reconnected on a different connection since the call started. Returns false
// when the user has no live connection.
type Sender interface {
	ToUser(userID, event string, payload any) bool
}

type attempt struct {
	peer  string
	phase Phase
}

// Manager coordinates call attempts between pairs of users. The server never
// touches media: it relays opaque offer/answer/ICE blobs between exactly the
// two identified parties and tracks just enough phase to unwind the peer when
// one side disconnects. There is no ringing timeout; an unanswered call sits
// in calling/receiving until an explicit event or a disconnect ends it.
type Manager struct {
	mu       sync.Mutex
	attempts map[string]*attempt // userID -> in-flight attempt

	sender Sender
	logger *slog.Logger
}

func NewManager(logger *slog.Logger, sender Sender) *Manager {
	return &Manager{
		attempts: make(map[string]*attempt),
		sender:   sender,
		logger:   logger.With(slog.String("component", "call_manager")),
	}
}

// Initiate starts a call attempt from caller to receiver. An offline receiver
// is reported back to the caller immediately; a hung "Calling..." UI is worse
// than an explicit error. No state is recorded in that case.
//
// A user holds at most one attempt at a time. A new initiate must never
// overwrite an in-flight attempt: that would orphan its other side, and an
// orphaned entry means the peer is never told when that user disconnects. Both
// busy cases answer the caller with call:error and leave existing calls alone.
func (m *Manager) Initiate(callerID, receiverID string, callerInfo json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, inCall := m.attempts[callerID]; inCall {
		m.sender.ToUser(callerID, protocol.EventCallError, protocol.CallError{Message: inCallMessage})
		m.logger.Warn("refusing initiate: caller already in a call", slog.String("caller", callerID))
		return
	}
	if _, inCall := m.attempts[receiverID]; inCall {
		m.sender.ToUser(callerID, protocol.EventCallError, protocol.CallError{Message: busyMessage})
		m.logger.Info("refusing initiate: receiver is in a call",
			slog.String("caller", callerID),
			slog.String("receiver", receiverID),
		)
		return
	}

	delivered := m.sender.ToUser(receiverID, protocol.EventCallIncoming, protocol.CallIncoming{
		CallerID:   callerID,
		CallerInfo: callerInfo,
	})
	if !delivered {
		m.sender.ToUser(callerID, protocol.EventCallError, protocol.CallError{Message: offlineMessage})
		return
	}

	m.attempts[callerID] = &attempt{peer: receiverID, phase: PhaseCalling}
	m.attempts[receiverID] = &attempt{peer: callerID, phase: PhaseReceiving}

	m.logger.Info("call initiated", slog.String("caller", callerID), slog.String("receiver", receiverID))
}

// Accept moves both sides to ongoing and notifies the caller. If the caller
// vanished between initiate and accept the receiver gets an explicit error
// and the stale attempt is cleared. An accept that does not match an
// in-flight attempt from that caller is dropped: it is either stale or
// forged, and acting on it would overwrite unrelated call state.
func (m *Manager) Accept(receiverID, callerID string, receiverInfo json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.attempts[receiverID]
	if !ok || a.peer != callerID {
		m.logger.Warn("ignoring accept with no matching call attempt",
			slog.String("receiver", receiverID),
			slog.String("caller", callerID),
		)
		return
	}

	delivered := m.sender.ToUser(callerID, protocol.EventCallAccepted, protocol.CallAccepted{
		ReceiverID:   receiverID,
		ReceiverInfo: receiverInfo,
	})
	if !delivered {
		m.clearPair(receiverID, callerID)
		m.sender.ToUser(receiverID, protocol.EventCallError, protocol.CallError{Message: offlineMessage})
		return
	}
	m.attempts[callerID] = &attempt{peer: receiverID, phase: PhaseOngoing}
	m.attempts[receiverID] = &attempt{peer: callerID, phase: PhaseOngoing}

	m.logger.Info("call accepted", slog.String("caller", callerID), slog.String("receiver", receiverID))
}

// Reject ends the attempt before it was answered and notifies the caller.
// Without a matching attempt nothing is sent; a bare reject must not let one
// client push call:rejected to an arbitrary user.
func (m *Manager) Reject(receiverID, callerID string) {
	m.mu.Lock()
	cleared := m.clearPair(receiverID, callerID)
	m.mu.Unlock()
	if !cleared {
		m.logger.Debug("ignoring reject with no matching call attempt",
			slog.String("receiver", receiverID),
			slog.String("caller", callerID),
		)
		return
	}

	m.sender.ToUser(callerID, protocol.EventCallRejected, protocol.CallRejected{ReceiverID: receiverID})
	m.logger.Info("call rejected", slog.String("caller", callerID), slog.String("receiver", receiverID))
}

// End terminates the attempt from either side. An unresolvable recipient is
// not an error here: they are simply already gone. As with Reject, the
// notification only goes out when an attempt between the pair actually
// existed; otherwise any client could push spurious call:ended events.
func (m *Manager) End(fromID, toID string) {
	m.mu.Lock()
	cleared := m.clearPair(fromID, toID)
	m.mu.Unlock()
	if !cleared {
		m.logger.Debug("ignoring end with no matching call attempt",
			slog.String("from", fromID),
			slog.String("to", toID),
		)
		return
	}

	m.sender.ToUser(toID, protocol.EventCallEnded, protocol.CallEnded{From: fromID})
	m.logger.Info("call ended", slog.String("from", fromID), slog.String("to", toID))
}

// Relay forwards a WebRTC signaling event (offer, answer or ICE candidate)
// without inspecting its payload. An offline target is dropped with a log
// entry; the REST layer remains the source of truth for anything durable.
func (m *Manager) Relay(event, fromID string, sig protocol.Signal) {
	delivered := m.sender.ToUser(sig.To, event, protocol.SignalRelay{
		From:      fromID,
		Offer:     sig.Offer,
		Answer:    sig.Answer,
		Candidate: sig.Candidate,
	})
	if !delivered {
		m.logger.Debug("dropped signaling relay to offline user",
			slog.String("event", event),
			slog.String("from", fromID),
			slog.String("to", sig.To),
		)
	}
}

// Drop reacts to a user's disconnect. If they were in any non-idle call
// phase the peer is told the call ended, exactly as if call:end had been
// sent, so nobody is left in a dangling ongoing/calling state. This cleanup
// is unconditional; it is the safety net against state leaks.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	a, ok := m.attempts[userID]
	if !ok {
		m.mu.Unlock()
		return
	}
	peer := a.peer
	m.clearPair(userID, peer)
	m.mu.Unlock()

	m.sender.ToUser(peer, protocol.EventCallEnded, protocol.CallEnded{From: userID})
	m.logger.Info("call ended by disconnect", slog.String("user", userID), slog.String("peer", peer))
}

// Phase reports the user's current call phase, if any.
func (m *Manager) Phase(userID string) (Phase, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[userID]
	if !ok {
		return "", false
	}
	return a.phase, true
}

// clearPair removes both sides of an attempt, but only entries that actually
// reference each other; a stale event must not tear down an unrelated call.
// Reports whether anything was removed. Callers must hold the lock.
func (m *Manager) clearPair(a, b string) bool {
	cleared := false
	if at, ok := m.attempts[a]; ok && at.peer == b {
		delete(m.attempts, a)
		cleared = true
	}
	if at, ok := m.attempts[b]; ok && at.peer == a {
		delete(m.attempts, b)
		cleared = true
	}
	return cleared
}
