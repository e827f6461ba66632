package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/cardbridge/cardbridge/msgbus"
)

// =============================================================================
// STATE MANAGER
// =============================================================================

// StateManager caches the latest game-state snapshot read from the transport
// and detects meaningful changes between snapshots.
//
// Reads go through the shared sequence tracker, so a snapshot is ingested at
// most once no matter how often the channel is polled.
//
// Thread-safe.
type StateManager struct {
	transport msgbus.Transport
	tracker   *msgbus.SequenceTracker
	logger    msgbus.Logger

	mu         sync.Mutex
	current    *msgbus.GameState
	lastUpdate time.Time
	changed    bool
}

// NewStateManager creates a state manager on the given transport.
func NewStateManager(transport msgbus.Transport, tracker *msgbus.SequenceTracker, logger msgbus.Logger) *StateManager {
	if logger == nil {
		logger = msgbus.NopLogger{}
	}
	return &StateManager{
		transport: transport,
		tracker:   tracker,
		logger:    logger,
	}
}

// CurrentState refreshes from the transport and returns the latest snapshot,
// or nil if none has ever been seen. The returned pointer must be treated as
// read-only.
func (m *StateManager) CurrentState(ctx context.Context) *msgbus.GameState {
	m.refresh(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// UpdateState installs a snapshot directly, bypassing the transport. Used
// when a fresh state arrives embedded in an action result.
func (m *StateManager) UpdateState(state *msgbus.GameState) {
	if state == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.install(state)
}

// StateChanged refreshes and reports whether the state has meaningfully
// changed since the last call. The changed flag resets on read.
func (m *StateManager) StateChanged(ctx context.Context) bool {
	m.refresh(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.changed {
		m.changed = false
		return true
	}
	return false
}

// WaitForStateChange polls until the state changes, the timeout elapses, or
// ctx is canceled. Returns true iff a change was observed.
func (m *StateManager) WaitForStateChange(ctx context.Context, timeout, pollInterval time.Duration) bool {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if m.StateChanged(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			m.logger.Warn("state_change_wait_timed_out", "timeout", timeout)
			return false
		case <-ticker.C:
		}
	}
}

// Summary returns a compact view of the current state for logging and the
// status endpoint of operator tooling.
func (m *StateManager) Summary(ctx context.Context) map[string]any {
	state := m.CurrentState(ctx)
	if state == nil {
		return map[string]any{"status": "no_state"}
	}
	m.mu.Lock()
	lastUpdate := m.lastUpdate
	m.mu.Unlock()

	return map[string]any{
		"session_id":         state.SessionID,
		"phase":              string(state.CurrentPhase),
		"ante":               state.Ante,
		"money":              state.Money,
		"hands_remaining":    state.HandsRemaining,
		"discards_remaining": state.DiscardsRemaining,
		"hand_size":          len(state.HandCards),
		"joker_count":        len(state.Jokers),
		"consumable_count":   len(state.Consumables),
		"reorder_available":  state.PostHandJokerReorderAvailable,
		"last_update":        lastUpdate.UTC().Format(time.RFC3339),
	}
}

// refresh pulls the latest snapshot off the transport. Transport errors and
// malformed envelopes leave the cached state untouched.
func (m *StateManager) refresh(ctx context.Context) {
	env, err := m.transport.ReadMessage(ctx, msgbus.ChannelGameState)
	if err != nil {
		m.logger.Debug("state_read_failed", "error", err)
		return
	}
	if env == nil {
		return
	}
	if !m.tracker.Observe(msgbus.ChannelGameState, env.SequenceID) {
		return
	}

	var state msgbus.GameState
	if err := env.DecodeData(&state); err != nil {
		m.logger.Warn("state_decode_failed", "sequence_id", env.SequenceID, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.install(&state)
}

// install replaces the cached state when the new one differs meaningfully.
// Callers must hold mu.
func (m *StateManager) install(state *msgbus.GameState) {
	if statesEqual(m.current, state) {
		return
	}
	m.current = state
	m.lastUpdate = time.Now()
	m.changed = true
	m.logger.Info("state_updated",
		"session_id", state.SessionID,
		"phase", state.CurrentPhase,
		"ante", state.Ante,
	)
}

// statesEqual compares the attributes that indicate a meaningful change.
// Deliberately shallow: a card flipping enhancement in place does not count
// as a change worth waking waiters for.
func statesEqual(a, b *msgbus.GameState) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.SessionID == b.SessionID &&
		a.CurrentPhase == b.CurrentPhase &&
		a.Ante == b.Ante &&
		a.Money == b.Money &&
		a.HandsRemaining == b.HandsRemaining &&
		a.DiscardsRemaining == b.DiscardsRemaining &&
		len(a.HandCards) == len(b.HandCards) &&
		len(a.Jokers) == len(b.Jokers) &&
		a.PostHandJokerReorderAvailable == b.PostHandJokerReorderAvailable
}

// =============================================================================
// TRANSITION VALIDATION
// =============================================================================

// ValidTransition reports whether moving from old to new is coherent:
// the session must not silently switch and the ante never goes backwards.
// A nil old state accepts anything.
func ValidTransition(oldState, newState *msgbus.GameState) bool {
	if oldState == nil {
		return true
	}
	if newState == nil {
		return false
	}
	return oldState.SessionID == newState.SessionID && newState.Ante >= oldState.Ante
}
