package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbridge/cardbridge/msgbus"
)

func newHTTPSTransport(t *testing.T, handler http.Handler) (*HTTPSTransport, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr, err := NewHTTPSTransport(HTTPSConfig{BaseURL: srv.URL}, msgbus.NewSequenceTracker(), msgbus.NopLogger{})
	require.NoError(t, err)
	return tr, srv
}

func TestNewHTTPSTransportRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPSTransport(HTTPSConfig{}, msgbus.NewSequenceTracker(), msgbus.NopLogger{})
	assert.Error(t, err)
}

func TestHTTPSTransportWritePostsEnvelope(t *testing.T) {
	var got map[string]any
	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultGameDataEndpoint, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	err := tr.WriteMessage(context.Background(), msgbus.ChannelGameState, msgbus.GameState{SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, float64(1), got["sequence_id"])
	assert.Equal(t, "game_state", got["message_type"])
	assert.Contains(t, got, "timestamp")
	assert.Contains(t, got, "data")
	// No action has been consumed yet, so the advisory echo is omitted.
	assert.NotContains(t, got, "last_sequence_id")
}

func TestHTTPSTransportWriteEchoesLastSequenceID(t *testing.T) {
	var got map[string]any
	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	tr.tracker.Observe(msgbus.ChannelAction, 7)
	require.NoError(t, tr.WriteMessage(context.Background(), msgbus.ChannelGameState, msgbus.GameState{SessionID: "s1"}))
	assert.Equal(t, float64(7), got["last_sequence_id"])
}

func TestHTTPSTransportWriteAuthFailure(t *testing.T) {
	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := tr.WriteMessage(context.Background(), msgbus.ChannelGameState, msgbus.GameState{})
	var writeErr *msgbus.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, msgbus.FailureKindAuth, writeErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, writeErr.StatusCode)
}

func TestHTTPSTransportWriteServerError(t *testing.T) {
	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := tr.WriteMessage(context.Background(), msgbus.ChannelGameState, msgbus.GameState{})
	var writeErr *msgbus.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, msgbus.FailureKindStatus, writeErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, writeErr.StatusCode)
}

func TestHTTPSTransportWriteNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, err := NewHTTPSTransport(HTTPSConfig{BaseURL: url, Timeout: 200 * time.Millisecond},
		msgbus.NewSequenceTracker(), msgbus.NopLogger{})
	require.NoError(t, err)

	werr := tr.WriteMessage(context.Background(), msgbus.ChannelGameState, msgbus.GameState{})
	var writeErr *msgbus.WriteError
	require.ErrorAs(t, werr, &writeErr)
	assert.Equal(t, msgbus.FailureKindNetwork, writeErr.Kind)
	assert.Zero(t, writeErr.StatusCode)
}

func TestHTTPSTransportWriteSendsHeaders(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPSTransport(HTTPSConfig{
		BaseURL: srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token123"},
	}, msgbus.NewSequenceTracker(), msgbus.NopLogger{})
	require.NoError(t, err)

	require.NoError(t, tr.WriteMessage(context.Background(), msgbus.ChannelGameState, msgbus.GameState{}))
	assert.Equal(t, "Bearer token123", auth)
}

func TestHTTPSTransportReadAction(t *testing.T) {
	env, err := msgbus.Wrap(msgbus.ChannelAction, msgbus.ActionCommand{
		ActionType: msgbus.ActionPlayHand,
		SequenceID: 5,
	}, 5)
	require.NoError(t, err)
	payload, err := env.Encode()
	require.NoError(t, err)

	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DefaultActionsEndpoint, r.URL.Path)
		w.Write(payload)
	}))

	got, err := tr.ReadMessage(context.Background(), msgbus.ChannelAction)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(5), got.SequenceID)

	var cmd msgbus.ActionCommand
	require.NoError(t, got.DecodeData(&cmd))
	assert.Equal(t, msgbus.ActionPlayHand, cmd.ActionType)
}

func TestHTTPSTransportReadNoActionsMarker(t *testing.T) {
	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "No actions available"})
	}))

	env, err := tr.ReadMessage(context.Background(), msgbus.ChannelAction)
	assert.NoError(t, err)
	assert.Nil(t, env)
}

func TestHTTPSTransportReadNotFoundIsAbsence(t *testing.T) {
	tr, _ := newHTTPSTransport(t, http.NotFoundHandler())

	env, err := tr.ReadMessage(context.Background(), msgbus.ChannelAction)
	assert.NoError(t, err)
	assert.Nil(t, env)
}

func TestHTTPSTransportReadStateChannelIsWriteOnly(t *testing.T) {
	tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("state channel reads must not hit the server")
	}))

	env, err := tr.ReadMessage(context.Background(), msgbus.ChannelGameState)
	assert.NoError(t, err)
	assert.Nil(t, env)
}

func TestHTTPSTransportIsAvailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"healthy", http.StatusOK, true},
		{"no health route", http.StatusNotFound, true},
		{"server error", http.StatusInternalServerError, false},
		{"auth required", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newHTTPSTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, DefaultHealthEndpoint, r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			assert.Equal(t, tt.want, tr.IsAvailable(context.Background()))
		})
	}
}

func TestHTTPSTransportIsAvailableUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, err := NewHTTPSTransport(HTTPSConfig{BaseURL: url, Timeout: 200 * time.Millisecond},
		msgbus.NewSequenceTracker(), msgbus.NopLogger{})
	require.NoError(t, err)
	assert.False(t, tr.IsAvailable(context.Background()))
}

func TestHTTPSTransportCleanupNoOp(t *testing.T) {
	tr, _ := newHTTPSTransport(t, http.NotFoundHandler())
	assert.NoError(t, tr.Cleanup(time.Minute))
}
