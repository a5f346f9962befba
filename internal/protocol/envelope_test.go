package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nadirk/chatwire/internal/protocol"
)

func TestEncodeTypedPayload(t *testing.T) {
	req := require.New(t)

	data, err := protocol.Encode(protocol.EventUserOnline, protocol.UserOnline{UserID: "user-1"})
	req.NoError(err)

	var msg protocol.ServerMessage
	req.NoError(json.Unmarshal(data, &msg))
	req.Equal(protocol.EventUserOnline, msg.Event)
	req.JSONEq(`{"userId":"user-1"}`, string(msg.Payload))
}

func TestEncodeForwardsRawPayloadUntouched(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"id":"m1","text":"hi","attachments":[1,2,3]}`)
	data, err := protocol.Encode(protocol.EventNewMessage, raw)
	req.NoError(err)

	var msg protocol.ServerMessage
	req.NoError(json.Unmarshal(data, &msg))
	req.JSONEq(string(raw), string(msg.Payload))
}

func TestEncodeNilPayload(t *testing.T) {
	req := require.New(t)

	data, err := protocol.Encode(protocol.EventUserOffline, nil)
	req.NoError(err)

	var msg protocol.ServerMessage
	req.NoError(json.Unmarshal(data, &msg))
	req.Equal(protocol.EventUserOffline, msg.Event)
	req.Empty(msg.Payload)
}
