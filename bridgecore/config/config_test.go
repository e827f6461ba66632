package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBridgeConfig(t *testing.T) {
	c := DefaultBridgeConfig()

	assert.Equal(t, TransportFile, c.Transport)
	assert.Equal(t, "shared", c.SharedDir)
	assert.Equal(t, 100, c.PollIntervalMs)
	assert.Equal(t, 10.0, c.ActionTimeout)
	assert.Equal(t, 5.0, c.RequestTimeout)
	assert.Equal(t, 60.0, c.CleanupInterval)
	assert.Equal(t, 300.0, c.CleanupMaxAge)
	assert.Equal(t, "INFO", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestBridgeConfigFromMap(t *testing.T) {
	c := BridgeConfigFromMap(map[string]any{
		"transport":        "https",
		"base_url":         "https://collector.example.com",
		"poll_interval_ms": float64(250), // JSON decoding produces float64
		"action_timeout":   30,
		"headers": map[string]any{
			"Authorization": "Bearer tok",
			"bogus":         42,
		},
		"unknown_key": "ignored",
	})

	assert.Equal(t, TransportHTTPS, c.Transport)
	assert.Equal(t, "https://collector.example.com", c.BaseURL)
	assert.Equal(t, 250, c.PollIntervalMs)
	assert.Equal(t, 30.0, c.ActionTimeout)
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok"}, c.Headers)
	// Untouched keys keep their defaults.
	assert.Equal(t, "/game-data", c.GameDataEndpoint)
}

func TestBridgeConfigMapRoundTrip(t *testing.T) {
	orig := DefaultBridgeConfig()
	orig.Transport = TransportHTTPS
	orig.BaseURL = "https://h.example.com"
	orig.Headers = map[string]string{"X-Key": "v"}
	orig.TracingEndpoint = "localhost:4317"

	got := BridgeConfigFromMap(orig.ToMap())
	assert.Equal(t, orig, got)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: https
base_url: https://collector.example.com
poll_interval_ms: 50
action_timeout: 2.5
headers:
  Authorization: Bearer tok
`), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, TransportHTTPS, c.Transport)
	assert.Equal(t, 50, c.PollIntervalMs)
	assert.Equal(t, 2.5, c.ActionTimeout)
	assert.Equal(t, "Bearer tok", c.Headers["Authorization"])
	// Unset keys fall back to defaults.
	assert.Equal(t, 300.0, c.CleanupMaxAge)
	assert.NoError(t, c.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("transport: [unclosed"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BridgeConfig)
		ok     bool
	}{
		{"defaults", func(c *BridgeConfig) {}, true},
		{"https with url", func(c *BridgeConfig) {
			c.Transport = TransportHTTPS
			c.BaseURL = "https://x"
		}, true},
		{"https missing url", func(c *BridgeConfig) { c.Transport = TransportHTTPS }, false},
		{"file missing dir", func(c *BridgeConfig) { c.SharedDir = "" }, false},
		{"unknown transport", func(c *BridgeConfig) { c.Transport = "carrier-pigeon" }, false},
		{"zero poll interval", func(c *BridgeConfig) { c.PollIntervalMs = 0 }, false},
		{"negative action timeout", func(c *BridgeConfig) { c.ActionTimeout = -1 }, false},
		{"zero cleanup", func(c *BridgeConfig) { c.CleanupMaxAge = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultBridgeConfig()
			tt.mutate(c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	c := DefaultBridgeConfig()
	c.PollIntervalMs = 250
	c.ActionTimeout = 2.5
	c.RequestTimeout = 5
	c.CleanupInterval = 60
	c.CleanupMaxAge = 300
	c.StateCheckInterval = 0.5

	assert.Equal(t, 250*time.Millisecond, c.PollInterval())
	assert.Equal(t, 2500*time.Millisecond, c.ActionTimeoutDuration())
	assert.Equal(t, 5*time.Second, c.RequestTimeoutDuration())
	assert.Equal(t, time.Minute, c.CleanupIntervalDuration())
	assert.Equal(t, 5*time.Minute, c.CleanupMaxAgeDuration())
	assert.Equal(t, 500*time.Millisecond, c.StateCheckIntervalDuration())
}
