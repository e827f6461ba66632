// Package journal persists every envelope the bridge sends or receives as
// compressed JSONL, one entry per envelope, rotated hourly. The journal is a
// flight recorder for replaying and debugging agent runs; the bridge never
// reads it back at runtime.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cardbridge/cardbridge/msgbus"
)

// Direction records which way an envelope crossed the bridge.
type Direction string

const (
	DirectionOut Direction = "out" // bridge -> game
	DirectionIn  Direction = "in"  // game -> bridge
)

// Entry is one journal line.
type Entry struct {
	LoggedAt  time.Time        `json:"logged_at"`
	Direction Direction        `json:"direction"`
	Envelope  *msgbus.Envelope `json:"envelope"`
}

// Journal appends envelope entries to hourly zstd-compressed JSONL files
// named bridge-<hour>.jsonl.zst under its base directory.
//
// Thread-safe. A nil *Journal is valid and records nothing, so callers never
// branch on whether journaling is enabled.
type Journal struct {
	baseDir string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// New creates a journal rooted at baseDir. Files are created lazily on the
// first record.
func New(baseDir string) *Journal {
	return &Journal{baseDir: baseDir}
}

// Record appends one entry for the envelope. Failures are returned, not
// fatal; the caller decides whether a broken flight recorder grounds the
// flight (it should not).
func (j *Journal) Record(direction Direction, env *msgbus.Envelope) error {
	if j == nil || env == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(Entry{
		LoggedAt:  time.Now().UTC(),
		Direction: direction,
		Envelope:  env,
	})
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

// Close flushes and closes the current segment.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	return err
}

func (j *Journal) pathForHour(hour string) string {
	return filepath.Join(j.baseDir, fmt.Sprintf("bridge-%s.jsonl.zst", hour))
}

// ReadAll decodes every entry from a journal segment file. Intended for
// offline replay tooling and tests.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var entries []Entry
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("corrupt journal line: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
