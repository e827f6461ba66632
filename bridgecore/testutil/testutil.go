// Package testutil provides shared test doubles and fixtures for bridge
// tests: a scriptable in-memory transport and representative payloads.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/cardbridge/cardbridge/msgbus"
)

// =============================================================================
// MOCK TRANSPORT
// =============================================================================

// MockTransport is an in-memory msgbus.Transport for tests. Reads are served
// from per-channel scripts (consumed front to back, then the last entry
// repeats); writes are recorded for assertion.
//
// Thread-safe.
type MockTransport struct {
	mu sync.Mutex

	scripts  map[msgbus.Channel][]scriptEntry
	writes   []RecordedWrite
	seq      uint64
	writeErr error
	readErr  error

	// Available controls IsAvailable. Defaults to true via NewMockTransport.
	Available bool
	// CleanupCalls counts Cleanup invocations.
	CleanupCalls int
}

type scriptEntry struct {
	env *msgbus.Envelope
	err error
}

// RecordedWrite captures one WriteMessage call.
type RecordedWrite struct {
	Channel    msgbus.Channel
	Data       any
	SequenceID uint64
}

// NewMockTransport creates an available mock with no scripted reads.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		scripts:   make(map[msgbus.Channel][]scriptEntry),
		Available: true,
	}
}

// ScriptRead queues an envelope (or nil for "nothing there") to be returned
// by subsequent ReadMessage calls on the channel.
func (m *MockTransport) ScriptRead(channel msgbus.Channel, env *msgbus.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[channel] = append(m.scripts[channel], scriptEntry{env: env})
}

// ScriptReadError queues a read error on the channel.
func (m *MockTransport) ScriptReadError(channel msgbus.Channel, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[channel] = append(m.scripts[channel], scriptEntry{err: err})
}

// FailWrites makes every subsequent WriteMessage return err (nil restores
// normal behavior).
func (m *MockTransport) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// WriteMessage records the write and assigns the next sequence id, mirroring
// the auto-wrap behavior of the real transports.
func (m *MockTransport) WriteMessage(ctx context.Context, channel msgbus.Channel, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.seq++
	m.writes = append(m.writes, RecordedWrite{Channel: channel, Data: data, SequenceID: m.seq})
	return nil
}

// ReadMessage pops the next scripted entry for the channel. When the script
// runs out, the final entry repeats, which matches real file semantics where
// the latest message stays on disk until replaced.
func (m *MockTransport) ReadMessage(ctx context.Context, channel msgbus.Channel) (*msgbus.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	script := m.scripts[channel]
	if len(script) == 0 {
		return nil, nil
	}
	entry := script[0]
	if len(script) > 1 {
		m.scripts[channel] = script[1:]
	}
	return entry.env, entry.err
}

// IsAvailable reports the configured availability.
func (m *MockTransport) IsAvailable(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Available
}

// Cleanup counts the call and succeeds.
func (m *MockTransport) Cleanup(maxAge time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CleanupCalls++
	return nil
}

// Writes returns a copy of the recorded writes.
func (m *MockTransport) Writes() []RecordedWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

// WritesOn returns the recorded writes for one channel.
func (m *MockTransport) WritesOn(channel msgbus.Channel) []RecordedWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RecordedWrite
	for _, w := range m.writes {
		if w.Channel == channel {
			out = append(out, w)
		}
	}
	return out
}

var _ msgbus.Transport = (*MockTransport)(nil)

// =============================================================================
// FIXTURES
// =============================================================================

// MustEnvelope wraps data in an envelope or panics. Test-only convenience.
func MustEnvelope(channel msgbus.Channel, data any, sequenceID uint64) *msgbus.Envelope {
	env, err := msgbus.Wrap(channel, data, sequenceID)
	if err != nil {
		panic(err)
	}
	return env
}

// SampleGameState returns a representative mid-run snapshot.
func SampleGameState() msgbus.GameState {
	return msgbus.GameState{
		SessionID:         "session-test",
		CurrentPhase:      msgbus.PhaseHandSelection,
		Ante:              2,
		Money:             14,
		HandsRemaining:    3,
		DiscardsRemaining: 2,
		HandCards: []msgbus.Card{
			{ID: "c1", Rank: "A", Suit: "spades"},
			{ID: "c2", Rank: "A", Suit: "hearts"},
			{ID: "c3", Rank: "K", Suit: "clubs"},
			{ID: "c4", Rank: "7", Suit: "diamonds"},
			{ID: "c5", Rank: "3", Suit: "clubs"},
		},
		Jokers: []msgbus.Joker{
			{ID: "j1", Name: "Joker", Position: 0},
			{ID: "j2", Name: "Greedy Joker", Position: 1},
		},
		Consumables: []msgbus.Consumable{
			{ID: "t1", Name: "The Fool", CardType: "tarot"},
		},
		CurrentBlind: &msgbus.Blind{
			Name: "Small Blind", BlindType: "small", Requirement: 300, Reward: 3,
		},
		AvailableActions: []string{"play_hand", "discard_cards"},
	}
}

// SampleShopState returns a snapshot sitting in the shop phase.
func SampleShopState() msgbus.GameState {
	s := SampleGameState()
	s.CurrentPhase = msgbus.PhaseShop
	s.CurrentBlind = nil
	s.HandCards = nil
	s.ShopContents = []msgbus.ShopItem{
		{Index: 0, ItemType: "joker", Name: "Blueprint", Cost: 10},
		{Index: 1, ItemType: "consumable", Name: "The Moon", Cost: 3},
		{Index: 2, ItemType: "pack", Name: "Arcana Pack", Cost: 4},
	}
	s.AvailableActions = []string{"buy_item", "reroll_shop", "go_to_shop"}
	return s
}
