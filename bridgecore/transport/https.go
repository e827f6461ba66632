package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cardbridge/cardbridge/bridgecore/journal"
	"github.com/cardbridge/cardbridge/bridgecore/observability"
	"github.com/cardbridge/cardbridge/msgbus"
)

// Default endpoint paths and timeout for the HTTPS transport.
const (
	DefaultGameDataEndpoint = "/game-data"
	DefaultActionsEndpoint  = "/actions"
	DefaultHealthEndpoint   = "/health"
	DefaultRequestTimeout   = 5 * time.Second
)

// HTTPSConfig configures the HTTPS transport.
type HTTPSConfig struct {
	// BaseURL is required, e.g. "https://collector.example.com".
	BaseURL string
	// GameDataEndpoint receives POSTed state envelopes (default /game-data).
	GameDataEndpoint string
	// ActionsEndpoint serves pending action envelopes via GET (default /actions).
	ActionsEndpoint string
	// HealthEndpoint is probed by IsAvailable (default /health).
	HealthEndpoint string
	// Timeout bounds every request (default 5s).
	Timeout time.Duration
	// Headers are added to every request, e.g. Authorization.
	Headers map[string]string
}

// HTTPSTransport speaks the same envelope protocol against a remote server:
// state-bearing channels POST to the game-data endpoint, the action channel
// is polled with GETs. The transport itself never retries; backoff is a
// caller-level policy.
type HTTPSTransport struct {
	cfg     HTTPSConfig
	client  *http.Client
	tracker *msgbus.SequenceTracker
	logger  msgbus.Logger
	journal *journal.Journal
}

// NewHTTPSTransport creates an HTTPS transport. A missing base URL is a
// configuration bug and fails fast here rather than during steady-state
// polling.
func NewHTTPSTransport(cfg HTTPSConfig, tracker *msgbus.SequenceTracker, logger msgbus.Logger) (*HTTPSTransport, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("https transport: base URL is required")
	}
	if cfg.GameDataEndpoint == "" {
		cfg.GameDataEndpoint = DefaultGameDataEndpoint
	}
	if cfg.ActionsEndpoint == "" {
		cfg.ActionsEndpoint = DefaultActionsEndpoint
	}
	if cfg.HealthEndpoint == "" {
		cfg.HealthEndpoint = DefaultHealthEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = msgbus.NopLogger{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPSTransport{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		tracker: tracker,
		logger:  logger,
	}, nil
}

// WithJournal makes the transport record every successfully posted envelope
// to jnl. Returns the transport for chaining.
func (t *HTTPSTransport) WithJournal(jnl *journal.Journal) *HTTPSTransport {
	t.journal = jnl
	return t
}

// gameDataRequest is the POST body: the envelope plus the advisory
// last_sequence_id echo (the last action sequence this client has processed),
// which lets the server reconcile idempotently.
type gameDataRequest struct {
	*msgbus.Envelope
	LastSequenceID uint64 `json:"last_sequence_id,omitempty"`
}

// WriteMessage POSTs an auto-sequenced envelope to the game-data endpoint.
// 2xx means delivered; everything else is a typed failure with the status
// classified so auth rejections are distinguishable from network timeouts.
func (t *HTTPSTransport) WriteMessage(ctx context.Context, channel msgbus.Channel, data any) error {
	if !channel.Valid() {
		return msgbus.NewWriteError(channel, msgbus.FailureKindEncode, 0, fmt.Errorf("unknown channel %q", channel))
	}

	env, err := msgbus.Wrap(channel, data, t.tracker.Next())
	if err != nil {
		observability.RecordTransportWrite("https", string(channel), "error")
		return err
	}

	body := gameDataRequest{Envelope: env, LastSequenceID: t.tracker.LastSeen(msgbus.ChannelAction)}
	payload, err := json.Marshal(body)
	if err != nil {
		observability.RecordTransportWrite("https", string(channel), "error")
		return msgbus.NewWriteError(channel, msgbus.FailureKindEncode, 0, err)
	}

	url := t.cfg.BaseURL + t.cfg.GameDataEndpoint
	resp, err := t.doRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		observability.RecordTransportWrite("https", string(channel), "error")
		t.logger.Error("game_data_post_failed", "channel", channel, "url", url, "error", err)
		return msgbus.NewWriteError(channel, msgbus.FailureKindNetwork, 0, err)
	}
	defer drainAndClose(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		observability.RecordTransportWrite("https", string(channel), "ok")
		t.logger.Debug("game_data_posted", "channel", channel, "sequence_id", env.SequenceID, "status", resp.StatusCode)
		if err := t.journal.Record(journal.DirectionOut, env); err != nil {
			t.logger.Warn("journal_write_failed", "channel", channel, "error", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		observability.RecordTransportWrite("https", string(channel), "error")
		t.logger.Error("game_data_auth_rejected", "channel", channel, "url", url, "status", resp.StatusCode)
		return msgbus.NewWriteError(channel, msgbus.FailureKindAuth, resp.StatusCode, nil)
	default:
		observability.RecordTransportWrite("https", string(channel), "error")
		t.logger.Error("game_data_post_rejected", "channel", channel, "url", url, "status", resp.StatusCode)
		return msgbus.NewWriteError(channel, msgbus.FailureKindStatus, resp.StatusCode, nil)
	}
}

// emptyMarker is the server's explicit "nothing pending" response shape.
type emptyMarker struct {
	Message string `json:"message"`
}

// ReadMessage GETs the actions endpoint. Only the action channel is readable
// over HTTPS; state-bearing channels are write-only and report no data.
func (t *HTTPSTransport) ReadMessage(ctx context.Context, channel msgbus.Channel) (*msgbus.Envelope, error) {
	if channel != msgbus.ChannelAction {
		return nil, nil
	}

	url := t.cfg.BaseURL + t.cfg.ActionsEndpoint
	resp, err := t.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		observability.RecordTransportRead("https", string(channel), "error")
		t.logger.Error("actions_get_failed", "url", url, "error", err)
		return nil, msgbus.NewTransportUnavailableError(url, err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode == http.StatusNotFound {
		// Endpoint reachable, nothing routed there yet.
		observability.RecordTransportRead("https", string(channel), "empty")
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.RecordTransportRead("https", string(channel), "error")
		t.logger.Error("actions_get_rejected", "url", url, "status", resp.StatusCode)
		return nil, msgbus.NewTransportUnavailableError(url, fmt.Errorf("status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordTransportRead("https", string(channel), "error")
		return nil, msgbus.NewTransportUnavailableError(url, err)
	}

	// The server answers 200 with an explicit marker when no actions are
	// queued; that is absence, not an error.
	var marker emptyMarker
	if json.Unmarshal(payload, &marker) == nil && marker.Message != "" {
		observability.RecordTransportRead("https", string(channel), "empty")
		return nil, nil
	}

	env, err := msgbus.DecodeEnvelope(channel, payload)
	if err != nil {
		observability.RecordTransportRead("https", string(channel), "malformed")
		t.logger.Warn("actions_decode_failed", "url", url, "error", err)
		return nil, err
	}
	if len(env.Data) == 0 {
		observability.RecordTransportRead("https", string(channel), "empty")
		return nil, nil
	}

	observability.RecordTransportRead("https", string(channel), "ok")
	return env, nil
}

// IsAvailable probes the health endpoint. A 404 counts as available: the
// server is reachable, it just has no health route.
func (t *HTTPSTransport) IsAvailable(ctx context.Context) bool {
	url := t.cfg.BaseURL + t.cfg.HealthEndpoint
	resp, err := t.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.logger.Warn("health_probe_failed", "url", url, "error", err)
		return false
	}
	defer drainAndClose(resp)

	if resp.StatusCode == http.StatusNotFound {
		return true
	}
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Cleanup is a no-op: the server owns its own retention.
func (t *HTTPSTransport) Cleanup(maxAge time.Duration) error { return nil }

func (t *HTTPSTransport) doRequest(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	return t.client.Do(req)
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// Ensure HTTPSTransport implements the transport protocol.
var _ msgbus.Transport = (*HTTPSTransport)(nil)
