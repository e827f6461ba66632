package msgbus

import (
	"fmt"
	"time"
)

// =============================================================================
// FAILURE KINDS
// =============================================================================

// FailureKind classifies transport write failures so callers and tests can
// distinguish, say, an auth rejection from a network timeout.
type FailureKind string

const (
	// FailureKindNetwork indicates a connection or timeout level failure.
	FailureKindNetwork FailureKind = "network"
	// FailureKindAuth indicates the remote rejected our credentials (401/403).
	FailureKindAuth FailureKind = "auth"
	// FailureKindStatus indicates any other non-2xx HTTP status.
	FailureKindStatus FailureKind = "status"
	// FailureKindIO indicates a local filesystem failure.
	FailureKindIO FailureKind = "io"
	// FailureKindEncode indicates the payload could not be serialized.
	FailureKindEncode FailureKind = "encode"
)

// =============================================================================
// ERRORS
// =============================================================================

// MalformedEnvelopeError is returned when an envelope cannot be decoded:
// invalid JSON, a missing or non-numeric sequence_id, or a missing
// message_type. Consumers treat it as absence, never as a crash.
type MalformedEnvelopeError struct {
	Channel Channel
	Reason  string
	Cause   error
}

func (e *MalformedEnvelopeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed envelope on %s: %s: %v", e.Channel, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed envelope on %s: %s", e.Channel, e.Reason)
}

func (e *MalformedEnvelopeError) Unwrap() error { return e.Cause }

// NewMalformedEnvelopeError creates a new MalformedEnvelopeError.
func NewMalformedEnvelopeError(channel Channel, reason string, cause error) *MalformedEnvelopeError {
	return &MalformedEnvelopeError{Channel: channel, Reason: reason, Cause: cause}
}

// TransportUnavailableError is returned when the channel endpoint or shared
// directory is unreachable.
type TransportUnavailableError struct {
	Target string // path or URL
	Cause  error
}

func (e *TransportUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport unavailable at %s: %v", e.Target, e.Cause)
	}
	return fmt.Sprintf("transport unavailable at %s", e.Target)
}

func (e *TransportUnavailableError) Unwrap() error { return e.Cause }

// NewTransportUnavailableError creates a new TransportUnavailableError.
func NewTransportUnavailableError(target string, cause error) *TransportUnavailableError {
	return &TransportUnavailableError{Target: target, Cause: cause}
}

// WriteError is returned when an outbound write fails. Kind tells callers
// what failed; StatusCode is set for HTTP failures.
type WriteError struct {
	Channel    Channel
	Kind       FailureKind
	StatusCode int
	Cause      error
}

func (e *WriteError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("write on %s failed (%s, status %d)", e.Channel, e.Kind, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("write on %s failed (%s): %v", e.Channel, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("write on %s failed (%s)", e.Channel, e.Kind)
	}
}

func (e *WriteError) Unwrap() error { return e.Cause }

// NewWriteError creates a new WriteError.
func NewWriteError(channel Channel, kind FailureKind, statusCode int, cause error) *WriteError {
	return &WriteError{Channel: channel, Kind: kind, StatusCode: statusCode, Cause: cause}
}

// TimeoutError is returned when no matching action result arrived within the
// allotted window. Distinct from ActionRejectedError: the command may still
// execute later, we just stopped waiting.
type TimeoutError struct {
	SequenceID uint64
	Timeout    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no result for action %d after %s", e.SequenceID, e.Timeout)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(sequenceID uint64, timeout time.Duration) *TimeoutError {
	return &TimeoutError{SequenceID: sequenceID, Timeout: timeout}
}

// ActionRejectedError is returned when the executor reported an explicit
// failure (success=false) for the command.
type ActionRejectedError struct {
	SequenceID uint64
	Message    string
}

func (e *ActionRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("action %d rejected by executor", e.SequenceID)
	}
	return fmt.Sprintf("action %d rejected: %s", e.SequenceID, e.Message)
}

// NewActionRejectedError creates a new ActionRejectedError.
func NewActionRejectedError(sequenceID uint64, message string) *ActionRejectedError {
	return &ActionRejectedError{SequenceID: sequenceID, Message: message}
}
