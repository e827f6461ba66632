package msgbus

import (
	"sync"
)

// SequenceTracker owns the outgoing sequence counter and the per-channel
// "last seen" watermarks used to reject stale or duplicate inbound envelopes.
//
// The counter is strictly increasing for the lifetime of the process and is
// never reset. Gaps are acceptable; regressions are not. A single tracker
// instance is shared by every component of one bridge via injection; there
// is deliberately no package-level counter.
//
// Thread-safe.
type SequenceTracker struct {
	mu       sync.Mutex
	next     uint64
	lastSeen map[Channel]uint64
}

// NewSequenceTracker creates a tracker whose first Next() returns 1.
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{
		lastSeen: make(map[Channel]uint64),
	}
}

// Next returns the next outgoing sequence id.
func (t *SequenceTracker) Next() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	return t.next
}

// IsNewer reports whether candidate is strictly newer than lastSeen.
// This is the single ordering rule of the protocol.
func IsNewer(candidate, lastSeen uint64) bool {
	return candidate > lastSeen
}

// Observe records sequenceID as seen on the channel if it is strictly newer
// than the current watermark. It returns true exactly when the watermark
// advanced, i.e. when the envelope should be processed; a stale or duplicate
// id returns false and leaves the watermark untouched.
func (t *SequenceTracker) Observe(channel Channel, sequenceID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !IsNewer(sequenceID, t.lastSeen[channel]) {
		return false
	}
	t.lastSeen[channel] = sequenceID
	return true
}

// LastSeen returns the current watermark for the channel (0 if nothing has
// been accepted yet).
func (t *SequenceTracker) LastSeen(channel Channel) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen[channel]
}
