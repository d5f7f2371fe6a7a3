package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePayloadValidates(t *testing.T) {
	var p ChangeNamePayload
	require.NoError(t, decodePayload(json.RawMessage(`{"name":"alice"}`), &p))
	require.Equal(t, "alice", p.Name)

	require.Error(t, decodePayload(nil, &ChangeNamePayload{}), "missing payload")
	require.Error(t, decodePayload(json.RawMessage(`{`), &ChangeNamePayload{}), "broken JSON")
	require.Error(t, decodePayload(json.RawMessage(`{"name":""}`), &ChangeNamePayload{}), "required field empty")
	require.Error(t, decodePayload(json.RawMessage(`{"user":"a","room":"r"}`), &SendMessagePayload{}), "missing text")
}

func TestEncodeEventRoundTrip(t *testing.T) {
	frame, err := encodeEvent(EventRoomExists, RoomExistsPayload{Exists: true})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	require.Equal(t, EventRoomExists, env.Event)

	var p RoomExistsPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.True(t, p.Exists)
}

func TestEncodeEventEmptyMessageList(t *testing.T) {
	frame, err := encodeEvent(EventLoadMessages, []string{})
	require.NoError(t, err)
	require.JSONEq(t, `{"event":"load:messages","data":[]}`, string(frame))
}
