package msgbus

import (
	"bytes"
	"encoding/json"
	"time"
)

// Envelope is the outer wrapper common to every message on every channel.
//
// Wire shape:
//
//	{
//	  "timestamp": "2024-01-01T12:00:00Z",
//	  "sequence_id": 123,
//	  "message_type": "action",
//	  "data": { ... }
//	}
//
// Timestamp is informational only; SequenceID is the sole ordering and
// deduplication key. Data is opaque to the transport layer; its schema is
// determined by MessageType. Envelopes are created fresh for every write and
// never mutated afterwards.
type Envelope struct {
	Timestamp   time.Time       `json:"timestamp"`
	SequenceID  uint64          `json:"sequence_id"`
	MessageType Channel         `json:"message_type"`
	Data        json.RawMessage `json:"data"`
}

// Wrap builds an envelope for the given channel, stamping the current UTC
// time. The payload is serialized immediately so a later concurrent mutation
// of data cannot leak into the wire form.
func Wrap(channel Channel, data any, sequenceID uint64) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, NewWriteError(channel, FailureKindEncode, 0, err)
	}
	return &Envelope{
		Timestamp:   time.Now().UTC(),
		SequenceID:  sequenceID,
		MessageType: channel,
		Data:        raw,
	}, nil
}

// Encode serializes the envelope to indented JSON, the form both sides of
// the bridge exchange on disk and over HTTP.
func (e *Envelope) Encode() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// DecodeData unmarshals the opaque payload into v.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return NewMalformedEnvelopeError(e.MessageType, "empty data payload", nil)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return NewMalformedEnvelopeError(e.MessageType, "data payload does not match schema", err)
	}
	return nil
}

// rawEnvelope mirrors Envelope with pointer fields so missing required
// fields are distinguishable from zero values at decode time.
type rawEnvelope struct {
	Timestamp   *string          `json:"timestamp"`
	SequenceID  *json.Number     `json:"sequence_id"`
	MessageType *string          `json:"message_type"`
	Data        *json.RawMessage `json:"data"`
}

// DecodeEnvelope parses and validates envelope bytes read from a channel.
//
// Malformed input (bad JSON, missing sequence_id, non-numeric sequence_id,
// missing message_type) is rejected with a *MalformedEnvelopeError; fields
// are never silently coerced.
func DecodeEnvelope(channel Channel, payload []byte) (*Envelope, error) {
	var raw rawEnvelope
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, NewMalformedEnvelopeError(channel, "invalid JSON", err)
	}

	if raw.SequenceID == nil {
		return nil, NewMalformedEnvelopeError(channel, "missing sequence_id", nil)
	}
	seq, err := raw.SequenceID.Int64()
	if err != nil || seq < 0 {
		return nil, NewMalformedEnvelopeError(channel, "sequence_id is not a non-negative integer", err)
	}
	if raw.MessageType == nil || *raw.MessageType == "" {
		return nil, NewMalformedEnvelopeError(channel, "missing message_type", nil)
	}

	env := &Envelope{
		SequenceID:  uint64(seq),
		MessageType: Channel(*raw.MessageType),
	}
	if raw.Timestamp != nil {
		// Timestamp is informational; a bad one is tolerated as zero.
		if ts, err := time.Parse(time.RFC3339Nano, *raw.Timestamp); err == nil {
			env.Timestamp = ts
		}
	}
	if raw.Data != nil {
		env.Data = *raw.Data
	}
	return env, nil
}
