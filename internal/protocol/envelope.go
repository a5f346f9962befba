package protocol

import (
	"encoding/json"
	"fmt"
)

// ClientMessage is the inbound wire envelope.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the outbound wire envelope.
type ServerMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals an outbound event. Payload may be a typed struct or a
// json.RawMessage that is forwarded as-is.
func Encode(event string, payload any) ([]byte, error) {
	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(ServerMessage{Event: event, Payload: raw})
}
