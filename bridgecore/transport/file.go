// Package transport provides the two concrete envelope transports: shared
// JSON files on disk and HTTPS against a remote collector.
//
// Both implement msgbus.Transport. The bridge layer picks one at startup and
// never branches on the kind afterwards.
package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cardbridge/cardbridge/bridgecore/journal"
	"github.com/cardbridge/cardbridge/bridgecore/observability"
	"github.com/cardbridge/cardbridge/msgbus"
)

// FileTransport exchanges envelopes through JSON files at well-known paths in
// a shared directory. The game process reads and writes the same files at
// uncoordinated times; correctness relies on atomic replace (readers never
// see torn data) plus the sequence discipline (readers never act twice on the
// same message), never on locks.
type FileTransport struct {
	baseDir string
	tracker *msgbus.SequenceTracker
	logger  msgbus.Logger
	journal *journal.Journal
}

// NewFileTransport creates a file transport rooted at baseDir. The directory
// is created if possible; failure to create it is not fatal here. The path
// may become writable later, and IsAvailable reports the current truth.
func NewFileTransport(baseDir string, tracker *msgbus.SequenceTracker, logger msgbus.Logger) *FileTransport {
	if logger == nil {
		logger = msgbus.NopLogger{}
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		logger.Warn("shared_dir_not_creatable", "path", baseDir, "error", err)
	}
	return &FileTransport{
		baseDir: baseDir,
		tracker: tracker,
		logger:  logger,
	}
}

// BaseDir returns the shared directory this transport operates on.
func (t *FileTransport) BaseDir() string { return t.baseDir }

// WithJournal makes the transport record every successfully written envelope
// to jnl. Returns the transport for chaining.
func (t *FileTransport) WithJournal(jnl *journal.Journal) *FileTransport {
	t.journal = jnl
	return t
}

func (t *FileTransport) pathFor(channel msgbus.Channel) string {
	return filepath.Join(t.baseDir, channel.FileName())
}

// WriteMessage wraps data in an auto-sequenced envelope and atomically
// replaces the channel file: serialize to a temp file in the same directory,
// fsync, then rename over the target. A reader polling the path observes
// either the old complete file or the new complete file, never a partial one.
func (t *FileTransport) WriteMessage(ctx context.Context, channel msgbus.Channel, data any) error {
	if !channel.Valid() {
		return msgbus.NewWriteError(channel, msgbus.FailureKindEncode, 0, fmt.Errorf("unknown channel %q", channel))
	}

	env, err := msgbus.Wrap(channel, data, t.tracker.Next())
	if err != nil {
		observability.RecordTransportWrite("file", string(channel), "error")
		t.logger.Error("envelope_encode_failed", "channel", channel, "error", err)
		return err
	}
	payload, err := env.Encode()
	if err != nil {
		observability.RecordTransportWrite("file", string(channel), "error")
		return msgbus.NewWriteError(channel, msgbus.FailureKindEncode, 0, err)
	}

	if err := t.replaceFile(t.pathFor(channel), payload); err != nil {
		observability.RecordTransportWrite("file", string(channel), "error")
		t.logger.Error("channel_write_failed", "channel", channel, "path", t.pathFor(channel), "error", err)
		return msgbus.NewWriteError(channel, msgbus.FailureKindIO, 0, err)
	}

	observability.RecordTransportWrite("file", string(channel), "ok")
	t.logger.Debug("channel_written", "channel", channel, "sequence_id", env.SequenceID)
	if err := t.journal.Record(journal.DirectionOut, env); err != nil {
		t.logger.Warn("journal_write_failed", "channel", channel, "error", err)
	}
	return nil
}

// replaceFile writes payload to a temp file in the target's directory, syncs
// it, then renames it over the target path.
func (t *FileTransport) replaceFile(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ReadMessage returns the latest envelope on the channel, (nil, nil) when no
// file exists yet, or a typed error. A decode failure (e.g. a writer from a
// filesystem without atomic rename caught mid-flight) comes back as a
// *MalformedEnvelopeError, which pollers treat as "nothing yet, retry".
func (t *FileTransport) ReadMessage(ctx context.Context, channel msgbus.Channel) (*msgbus.Envelope, error) {
	if !channel.Valid() {
		return nil, msgbus.NewMalformedEnvelopeError(channel, "unknown channel", nil)
	}

	payload, err := os.ReadFile(t.pathFor(channel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			observability.RecordTransportRead("file", string(channel), "empty")
			return nil, nil
		}
		observability.RecordTransportRead("file", string(channel), "error")
		t.logger.Error("channel_read_failed", "channel", channel, "path", t.pathFor(channel), "error", err)
		return nil, msgbus.NewTransportUnavailableError(t.pathFor(channel), err)
	}

	env, err := msgbus.DecodeEnvelope(channel, payload)
	if err != nil {
		observability.RecordTransportRead("file", string(channel), "malformed")
		t.logger.Warn("channel_decode_failed", "channel", channel, "error", err)
		return nil, err
	}

	observability.RecordTransportRead("file", string(channel), "ok")
	return env, nil
}

// IsAvailable reports whether the shared directory exists (creating it if
// needed) and a test write succeeds. Advisory only.
func (t *FileTransport) IsAvailable(ctx context.Context) bool {
	if err := os.MkdirAll(t.baseDir, 0o755); err != nil {
		t.logger.Warn("availability_probe_failed", "path", t.baseDir, "error", err)
		return false
	}
	probe := filepath.Join(t.baseDir, ".probe-"+uuid.NewString())
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		t.logger.Warn("availability_probe_failed", "path", t.baseDir, "error", err)
		return false
	}
	os.Remove(probe)
	return true
}

// Cleanup removes channel files whose modification time is older than maxAge,
// bounding disk usage when the other side has gone away.
func (t *FileTransport) Cleanup(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var lastErr error

	for _, channel := range msgbus.Channels() {
		path := t.pathFor(channel)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			t.logger.Warn("cleanup_remove_failed", "path", path, "error", err)
			lastErr = err
			continue
		}
		removed++
		t.logger.Debug("stale_channel_file_removed", "path", path)
	}

	if removed > 0 {
		observability.RecordCleanupRemoved(removed)
	}
	return lastErr
}

// Ensure FileTransport implements the transport protocol.
var _ msgbus.Transport = (*FileTransport)(nil)
