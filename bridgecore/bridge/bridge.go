// Package bridge is the consumer-facing layer of the card bridge: a single
// Manager facade over the transport, sequence discipline, action correlation,
// and state tracking.
//
// Two roles share the facade. The game side publishes snapshots (SendGameState
// and friends), consumes pending commands (PendingAction) and reports results
// (SubmitActionResult). The agent side issues commands (ExecuteAction) and
// observes state (State). Both roles go through the same envelope protocol,
// so one process can also play both ends in tests.
package bridge

import (
	"context"
	"time"

	"github.com/cardbridge/cardbridge/bridgecore/journal"
	"github.com/cardbridge/cardbridge/bridgecore/schema"
	"github.com/cardbridge/cardbridge/msgbus"
)

// Options tunes Manager timing. Zero values fall back to defaults.
type Options struct {
	// PollInterval is the cadence for result and state polling (default 100ms).
	PollInterval time.Duration
	// ActionTimeout bounds each dispatch-and-wait cycle (default 10s).
	ActionTimeout time.Duration
}

// DefaultActionTimeout bounds DispatchAndWait when Options does not say
// otherwise.
const DefaultActionTimeout = 10 * time.Second

// Manager is the top-level bridge facade.
type Manager struct {
	transport     msgbus.Transport
	tracker       *msgbus.SequenceTracker
	journal       *journal.Journal
	logger        msgbus.Logger
	actionTimeout time.Duration

	state      *StateManager
	correlator *Correlator
}

// NewManager wires a Manager around the transport. jnl may be nil to disable
// journaling.
func NewManager(transport msgbus.Transport, tracker *msgbus.SequenceTracker, jnl *journal.Journal, logger msgbus.Logger, opts Options) *Manager {
	if logger == nil {
		logger = msgbus.NopLogger{}
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	return &Manager{
		transport:     transport,
		tracker:       tracker,
		journal:       jnl,
		logger:        logger,
		actionTimeout: opts.ActionTimeout,
		state:         NewStateManager(transport, tracker, logger),
		correlator:    NewCorrelator(transport, tracker, jnl, logger, opts.PollInterval),
	}
}

// State exposes the state manager for direct observation.
func (m *Manager) State() *StateManager { return m.state }

// IsAvailable reports whether the underlying transport is currently usable.
func (m *Manager) IsAvailable(ctx context.Context) bool {
	return m.transport.IsAvailable(ctx)
}

// =============================================================================
// PUBLISHING (game side)
// =============================================================================

// SendGameState publishes a full game-state snapshot.
func (m *Manager) SendGameState(ctx context.Context, state msgbus.GameState) error {
	return m.transport.WriteMessage(ctx, msgbus.ChannelGameState, state)
}

// SendDeckState publishes the full remaining deck.
func (m *Manager) SendDeckState(ctx context.Context, deck msgbus.DeckState) error {
	return m.transport.WriteMessage(ctx, msgbus.ChannelDeckState, deck)
}

// SendHandLevels publishes poker-hand progression data.
func (m *Manager) SendHandLevels(ctx context.Context, levels msgbus.HandLevels) error {
	return m.transport.WriteMessage(ctx, msgbus.ChannelHandLevels, levels)
}

// SendVouchersAnte publishes voucher and ante metadata.
func (m *Manager) SendVouchersAnte(ctx context.Context, va msgbus.VouchersAnte) error {
	return m.transport.WriteMessage(ctx, msgbus.ChannelVouchersAnte, va)
}

// =============================================================================
// CONSUMING (game side)
// =============================================================================

// PendingAction returns the next unprocessed action command, or nil when
// there is none. Each command is returned at most once: the shared tracker's
// watermark rejects envelopes already handed out, so polling in a loop is
// safe. Payloads that fail the wire contract are dropped with a warning.
func (m *Manager) PendingAction(ctx context.Context) (*msgbus.ActionCommand, error) {
	env, err := m.transport.ReadMessage(ctx, msgbus.ChannelAction)
	if err != nil {
		m.logger.Debug("action_read_failed", "error", err)
		return nil, nil
	}
	if env == nil {
		return nil, nil
	}
	if !m.tracker.Observe(msgbus.ChannelAction, env.SequenceID) {
		return nil, nil
	}

	if err := schema.ValidatePayload(msgbus.ChannelAction, env.Data); err != nil {
		m.logger.Warn("action_payload_invalid", "sequence_id", env.SequenceID, "error", err)
		return nil, err
	}
	var cmd msgbus.ActionCommand
	if err := env.DecodeData(&cmd); err != nil {
		m.logger.Warn("action_decode_failed", "sequence_id", env.SequenceID, "error", err)
		return nil, err
	}

	if err := m.journal.Record(journal.DirectionIn, env); err != nil {
		m.logger.Warn("journal_write_failed", "error", err)
	}
	m.logger.Info("action_received", "action", cmd.ActionType, "sequence_id", cmd.SequenceID)
	return &cmd, nil
}

// SubmitActionResult reports the outcome of an executed command back across
// the bridge. The result must carry the originating command's sequence id.
func (m *Manager) SubmitActionResult(ctx context.Context, result msgbus.ActionResult) error {
	return m.transport.WriteMessage(ctx, msgbus.ChannelActionResult, result)
}

// =============================================================================
// DISPATCHING (agent side)
// =============================================================================

// ExecuteAction validates cmd against the current state, dispatches it, and
// waits for the correlated result. A command that fails pre-flight validation
// is rejected locally without touching the transport. When the result embeds
// a fresh state, the cache is updated before returning.
func (m *Manager) ExecuteAction(ctx context.Context, cmd msgbus.ActionCommand) ActionOutcome {
	state := m.state.CurrentState(ctx)
	if err := ValidateAction(cmd, state); err != nil {
		m.logger.Warn("action_invalid", "action", cmd.ActionType, "error", err)
		return ActionOutcome{
			Status: OutcomeRejected,
			Result: &msgbus.ActionResult{Success: false, ErrorMessage: err.Error()},
			Err:    msgbus.NewActionRejectedError(0, err.Error()),
		}
	}

	outcome := m.correlator.DispatchAndWait(ctx, cmd, m.actionTimeout)
	if outcome.Result != nil && outcome.Result.NewState != nil {
		m.state.UpdateState(outcome.Result.NewState)
	}
	return outcome
}

// =============================================================================
// BACKGROUND LOOPS
// =============================================================================

// CleanupConfig holds configurable retention parameters.
type CleanupConfig struct {
	// Interval is how often to run cleanup (default: 1 minute).
	Interval time.Duration
	// MaxAge is how old a channel file may grow before removal (default: 5 minutes).
	MaxAge time.Duration
}

// DefaultCleanupConfig returns default retention configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Interval: 1 * time.Minute,
		MaxAge:   5 * time.Minute,
	}
}

// StartCleanupLoop starts a background goroutine that periodically removes
// stale channel files. Returns a stop function.
func (m *Manager) StartCleanupLoop(cfg CleanupConfig) func() {
	if cfg.Interval == 0 {
		cfg = DefaultCleanupConfig()
	}

	ticker := time.NewTicker(cfg.Interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				m.runCleanupCycle(cfg)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// runCleanupCycle performs a single cleanup cycle with panic recovery.
func (m *Manager) runCleanupCycle(cfg CleanupConfig) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("cleanup_panic_recovered", "error", r)
		}
	}()

	if err := m.transport.Cleanup(cfg.MaxAge); err != nil {
		m.logger.Warn("cleanup_cycle_failed", "error", err)
		return
	}
	m.logger.Debug("cleanup_cycle_completed", "max_age", cfg.MaxAge)
}

// StartMonitorLoop starts a background goroutine that polls for state
// changes and logs a summary whenever one occurs. Returns a stop function.
func (m *Manager) StartMonitorLoop(interval time.Duration) func() {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for {
			select {
			case <-ticker.C:
				m.runMonitorCycle(ctx)
			case <-done:
				ticker.Stop()
				cancel()
				return
			}
		}
	}()

	return func() { close(done) }
}

// runMonitorCycle performs a single monitor cycle with panic recovery.
func (m *Manager) runMonitorCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("monitor_panic_recovered", "error", r)
		}
	}()

	if m.state.StateChanged(ctx) {
		m.logger.Info("game_state_changed", "summary", m.state.Summary(ctx))
	}
}
