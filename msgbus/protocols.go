// Package msgbus provides the message protocol shared by both sides of the
// game bridge.
//
// This module defines the CANONICAL protocol surface: the channel enum, the
// Envelope wire format, the sequence discipline, and the Transport contract.
// All components depend on these protocols, not implementations.
//
// Protocol Categories:
//   - Channels: one logical message stream per message type
//   - Envelope: the outer wrapper every message travels in
//   - Transport: delivery of envelopes over files or HTTPS
//   - Logger: structured logging injected into every component
package msgbus

import (
	"context"
	"time"
)

// =============================================================================
// CHANNELS
// =============================================================================

// Channel identifies a logical message stream. Each channel maps to exactly
// one file path (file transport) or one endpoint (HTTPS transport); the
// mapping is static configuration, never runtime data.
type Channel string

const (
	// ChannelGameState carries full game-state snapshots from the game side.
	ChannelGameState Channel = "game_state"
	// ChannelDeckState carries full-deck composition snapshots.
	ChannelDeckState Channel = "deck_state"
	// ChannelHandLevels carries poker-hand level/progression data.
	ChannelHandLevels Channel = "hand_levels"
	// ChannelVouchersAnte carries voucher and ante metadata.
	ChannelVouchersAnte Channel = "vouchers_ante"
	// ChannelAction carries action commands toward the game side.
	ChannelAction Channel = "action"
	// ChannelActionResult carries execution results back from the game side.
	ChannelActionResult Channel = "action_result"
)

// channelFiles is the static channel -> file name table for the file
// transport. Readers and writers on both sides must agree on it.
var channelFiles = map[Channel]string{
	ChannelGameState:    "game_state.json",
	ChannelDeckState:    "deck_state.json",
	ChannelHandLevels:   "hand_levels.json",
	ChannelVouchersAnte: "vouchers_ante.json",
	ChannelAction:       "actions.json",
	ChannelActionResult: "action_results.json",
}

// FileName returns the well-known file name for the channel, or "" for an
// unknown channel.
func (c Channel) FileName() string {
	return channelFiles[c]
}

// Valid reports whether the channel is one of the defined streams.
func (c Channel) Valid() bool {
	_, ok := channelFiles[c]
	return ok
}

// Channels returns all defined channels. The order is stable.
func Channels() []Channel {
	return []Channel{
		ChannelGameState,
		ChannelDeckState,
		ChannelHandLevels,
		ChannelVouchersAnte,
		ChannelAction,
		ChannelActionResult,
	}
}

// =============================================================================
// TRANSPORT PROTOCOL
// =============================================================================

// Transport delivers and receives envelopes on channels.
//
// The two implementations (file and HTTPS) honor the same contract so the
// bridge layer never branches on transport kind:
//
//   - WriteMessage wraps data in an auto-sequenced envelope and delivers it.
//     A nil return means delivery is durable from the transport's perspective
//     (file renamed into place / 2xx received). Failures come back as typed
//     errors, never panics.
//   - ReadMessage returns the most recently delivered envelope for the
//     channel, or (nil, nil) when nothing is there. Decode failures come back
//     as a *MalformedEnvelopeError so callers can treat them as absence.
//   - IsAvailable is a cheap advisory liveness probe; a false result does not
//     forbid write attempts.
//   - Cleanup bounds on-disk retention; it is a no-op for HTTPS.
type Transport interface {
	WriteMessage(ctx context.Context, channel Channel, data any) error
	ReadMessage(ctx context.Context, channel Channel) (*Envelope, error)
	IsAvailable(ctx context.Context) bool
	Cleanup(maxAge time.Duration) error
}

// =============================================================================
// LOGGING PROTOCOL
// =============================================================================

// Logger is the canonical protocol for structured logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// NopLogger is a Logger that discards everything. Useful as a default so
// components never have to nil-check their logger.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
