package bridge

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardbridge/cardbridge/bridgecore/journal"
	"github.com/cardbridge/cardbridge/bridgecore/observability"
	"github.com/cardbridge/cardbridge/msgbus"
)

// =============================================================================
// ACTION OUTCOMES
// =============================================================================

// OutcomeStatus classifies how a dispatched action concluded.
type OutcomeStatus string

const (
	// OutcomeResolved means a matching result arrived with success=true.
	OutcomeResolved OutcomeStatus = "resolved"
	// OutcomeRejected means a matching result arrived with success=false.
	OutcomeRejected OutcomeStatus = "rejected"
	// OutcomeTimedOut means no matching result arrived in the window. The
	// command may still execute later; the caller just stopped waiting.
	OutcomeTimedOut OutcomeStatus = "timed_out"
	// OutcomeWriteFailed means the command never left this process.
	OutcomeWriteFailed OutcomeStatus = "write_failed"
)

// ActionOutcome is the full account of one dispatched command.
type ActionOutcome struct {
	Status     OutcomeStatus
	SequenceID uint64
	Result     *msgbus.ActionResult // set for resolved and rejected
	Err        error                // set for timed_out and write_failed, and for rejected as *ActionRejectedError
}

// =============================================================================
// CORRELATOR
// =============================================================================

// DefaultPollInterval is how often the correlator re-reads the result
// channel while waiting.
const DefaultPollInterval = 100 * time.Millisecond

// Correlator dispatches action commands and waits for their results.
//
// Correlation is by sequence id: each command reserves an id from the shared
// tracker, the executor echoes it in the result, and the correlator ignores
// any result whose id does not match the command in flight. A result for an
// older command left on the channel can therefore never satisfy a newer one.
type Correlator struct {
	transport    msgbus.Transport
	tracker      *msgbus.SequenceTracker
	journal      *journal.Journal
	logger       msgbus.Logger
	pollInterval time.Duration
}

// NewCorrelator creates a correlator. journal may be nil to disable
// journaling; a zero pollInterval falls back to DefaultPollInterval.
func NewCorrelator(transport msgbus.Transport, tracker *msgbus.SequenceTracker, jnl *journal.Journal, logger msgbus.Logger, pollInterval time.Duration) *Correlator {
	if logger == nil {
		logger = msgbus.NopLogger{}
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Correlator{
		transport:    transport,
		tracker:      tracker,
		journal:      jnl,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// DispatchAndWait writes cmd on the action channel and polls the result
// channel until a result with the command's sequence id arrives, the timeout
// elapses, or ctx is canceled. The command's SequenceID field is assigned
// here; any caller-provided value is overwritten.
func (c *Correlator) DispatchAndWait(ctx context.Context, cmd msgbus.ActionCommand, timeout time.Duration) ActionOutcome {
	ctx, span := otel.Tracer("cardbridge").Start(ctx, "action.dispatch",
		trace.WithAttributes(attribute.String("action.type", string(cmd.ActionType))))
	defer span.End()

	cmd.SequenceID = c.tracker.Next()
	span.SetAttributes(attribute.Int64("action.sequence_id", int64(cmd.SequenceID)))

	start := time.Now()
	if err := c.transport.WriteMessage(ctx, msgbus.ChannelAction, cmd); err != nil {
		c.logger.Error("action_write_failed", "action", cmd.ActionType, "sequence_id", cmd.SequenceID, "error", err)
		observability.RecordActionDispatch(string(cmd.ActionType), string(OutcomeWriteFailed), time.Since(start).Seconds())
		return ActionOutcome{Status: OutcomeWriteFailed, SequenceID: cmd.SequenceID, Err: err}
	}
	c.logger.Debug("action_dispatched", "action", cmd.ActionType, "sequence_id", cmd.SequenceID)

	outcome := c.awaitResult(ctx, cmd, timeout)
	observability.RecordActionDispatch(string(cmd.ActionType), string(outcome.Status), time.Since(start).Seconds())
	return outcome
}

func (c *Correlator) awaitResult(ctx context.Context, cmd msgbus.ActionCommand, timeout time.Duration) ActionOutcome {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if result := c.pollResult(ctx, cmd); result != nil {
			if result.Success {
				c.logger.Info("action_resolved", "action", cmd.ActionType, "sequence_id", cmd.SequenceID)
				return ActionOutcome{Status: OutcomeResolved, SequenceID: cmd.SequenceID, Result: result}
			}
			c.logger.Warn("action_rejected", "action", cmd.ActionType, "sequence_id", cmd.SequenceID, "error", result.ErrorMessage)
			return ActionOutcome{
				Status:     OutcomeRejected,
				SequenceID: cmd.SequenceID,
				Result:     result,
				Err:        msgbus.NewActionRejectedError(cmd.SequenceID, result.ErrorMessage),
			}
		}

		select {
		case <-ctx.Done():
			return ActionOutcome{
				Status:     OutcomeTimedOut,
				SequenceID: cmd.SequenceID,
				Err:        msgbus.NewTimeoutError(cmd.SequenceID, timeout),
			}
		case <-deadline.C:
			c.logger.Warn("action_timed_out", "action", cmd.ActionType, "sequence_id", cmd.SequenceID, "timeout", timeout)
			return ActionOutcome{
				Status:     OutcomeTimedOut,
				SequenceID: cmd.SequenceID,
				Err:        msgbus.NewTimeoutError(cmd.SequenceID, timeout),
			}
		case <-ticker.C:
		}
	}
}

// pollResult reads the result channel once and returns the result iff it
// matches the command in flight. Transport errors and malformed envelopes are
// treated as absence.
func (c *Correlator) pollResult(ctx context.Context, cmd msgbus.ActionCommand) *msgbus.ActionResult {
	env, err := c.transport.ReadMessage(ctx, msgbus.ChannelActionResult)
	if err != nil {
		c.logger.Debug("result_read_failed", "sequence_id", cmd.SequenceID, "error", err)
		return nil
	}
	if env == nil {
		return nil
	}

	var result msgbus.ActionResult
	if err := env.DecodeData(&result); err != nil {
		c.logger.Warn("result_decode_failed", "sequence_id", cmd.SequenceID, "error", err)
		return nil
	}

	if result.SequenceID != cmd.SequenceID {
		c.logger.Debug("stale_result_ignored",
			"expected_sequence_id", cmd.SequenceID, "got_sequence_id", result.SequenceID)
		observability.RecordStaleResultIgnored()
		return nil
	}

	if err := c.journal.Record(journal.DirectionIn, env); err != nil {
		c.logger.Warn("journal_write_failed", "error", err)
	}
	return &result
}
