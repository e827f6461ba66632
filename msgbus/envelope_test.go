package msgbus

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// WRAP / ENCODE
// =============================================================================

func TestWrap_SerializesPayload(t *testing.T) {
	cmd := ActionCommand{ActionType: ActionGoToShop, SequenceID: 7}

	env, err := Wrap(ChannelAction, cmd, 7)
	require.NoError(t, err)

	assert.Equal(t, ChannelAction, env.MessageType)
	assert.Equal(t, uint64(7), env.SequenceID)
	assert.WithinDuration(t, time.Now().UTC(), env.Timestamp, 2*time.Second)

	var decoded ActionCommand
	require.NoError(t, env.DecodeData(&decoded))
	assert.Equal(t, cmd, decoded)
}

func TestWrap_UnserializablePayload(t *testing.T) {
	_, err := Wrap(ChannelGameState, make(chan int), 1)
	require.Error(t, err)

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, FailureKindEncode, writeErr.Kind)
}

func TestEncode_WireShape(t *testing.T) {
	env, err := Wrap(ChannelGameState, map[string]any{"money": 10}, 3)
	require.NoError(t, err)

	payload, err := env.Encode()
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(payload, &wire))
	assert.Contains(t, wire, "timestamp")
	assert.Equal(t, float64(3), wire["sequence_id"])
	assert.Equal(t, "game_state", wire["message_type"])
	assert.Equal(t, map[string]any{"money": float64(10)}, wire["data"])
}

// =============================================================================
// DECODE
// =============================================================================

func TestDecodeEnvelope_RoundTrip(t *testing.T) {
	original, err := Wrap(ChannelActionResult, ActionResult{SequenceID: 42, Success: true}, 42)
	require.NoError(t, err)

	payload, err := original.Encode()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(ChannelActionResult, payload)
	require.NoError(t, err)

	assert.Equal(t, original.SequenceID, decoded.SequenceID)
	assert.Equal(t, original.MessageType, decoded.MessageType)
	assert.True(t, original.Timestamp.Equal(decoded.Timestamp))
	assert.JSONEq(t, string(original.Data), string(decoded.Data))
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid JSON", `{"sequence_id": 1,`},
		{"truncated mid write", `{"timestamp": "2024-01-01T12:00:00Z", "sequ`},
		{"missing sequence_id", `{"message_type": "action", "data": {}}`},
		{"non-numeric sequence_id", `{"sequence_id": "abc", "message_type": "action", "data": {}}`},
		{"negative sequence_id", `{"sequence_id": -4, "message_type": "action", "data": {}}`},
		{"missing message_type", `{"sequence_id": 1, "data": {}}`},
		{"empty message_type", `{"sequence_id": 1, "message_type": "", "data": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope(ChannelAction, []byte(tt.payload))
			assert.Nil(t, env)

			var malformed *MalformedEnvelopeError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, ChannelAction, malformed.Channel)
		})
	}
}

func TestDecodeEnvelope_BadTimestampTolerated(t *testing.T) {
	payload := `{"timestamp": "yesterday-ish", "sequence_id": 9, "message_type": "game_state", "data": {}}`

	env, err := DecodeEnvelope(ChannelGameState, []byte(payload))
	require.NoError(t, err)
	assert.True(t, env.Timestamp.IsZero())
	assert.Equal(t, uint64(9), env.SequenceID)
}

func TestDecodeData_EmptyPayload(t *testing.T) {
	env := &Envelope{MessageType: ChannelAction}

	var cmd ActionCommand
	err := env.DecodeData(&cmd)

	var malformed *MalformedEnvelopeError
	require.True(t, errors.As(err, &malformed))
}

func TestDecodeEnvelope_AllChannelsRoundTrip(t *testing.T) {
	payloads := map[Channel]any{
		ChannelGameState:    GameState{SessionID: "s1", CurrentPhase: PhaseShop},
		ChannelDeckState:    DeckState{SessionID: "s1", Cards: []Card{{ID: "c1", Rank: "A", Suit: "spades"}}},
		ChannelHandLevels:   HandLevels{SessionID: "s1", Levels: []HandLevel{{Hand: "flush", Level: 2, Chips: 50, Mult: 8}}},
		ChannelVouchersAnte: VouchersAnte{SessionID: "s1", Ante: 3, Owned: []string{"overstock"}},
		ChannelAction:       ActionCommand{ActionType: ActionPlayHand, SequenceID: 5, CardIndices: []int{0, 1}},
		ChannelActionResult: ActionResult{SequenceID: 5, Success: false, ErrorMessage: "no hands left"},
	}

	for channel, payload := range payloads {
		t.Run(string(channel), func(t *testing.T) {
			env, err := Wrap(channel, payload, 5)
			require.NoError(t, err)

			wire, err := env.Encode()
			require.NoError(t, err)

			decoded, err := DecodeEnvelope(channel, wire)
			require.NoError(t, err)
			assert.Equal(t, channel, decoded.MessageType)
			assert.JSONEq(t, string(env.Data), string(decoded.Data))
		})
	}
}
