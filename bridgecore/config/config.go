// Package config provides bridge configuration - transport selection,
// timing parameters, and retention policy.
//
// This module contains ONLY configuration relevant to the bridge itself.
// Game-side extraction settings live with the game-side mod, not here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cardbridge/cardbridge/bridgecore/typeutil"
)

// TransportKind selects which concrete transport the bridge runs on.
type TransportKind string

const (
	// TransportFile exchanges envelopes through JSON files in a shared directory.
	TransportFile TransportKind = "file"
	// TransportHTTPS exchanges envelopes with a remote collector over HTTPS.
	TransportHTTPS TransportKind = "https"
)

// BridgeConfig holds bridge configuration.
//
// Transport-specific fields are only consulted for their own kind: SharedDir
// for file, BaseURL and friends for https.
type BridgeConfig struct {
	// Transport Selection
	Transport TransportKind `json:"transport" yaml:"transport"`

	// File Transport
	SharedDir string `json:"shared_dir" yaml:"shared_dir"`

	// HTTPS Transport
	BaseURL          string            `json:"base_url" yaml:"base_url"`
	GameDataEndpoint string            `json:"game_data_endpoint" yaml:"game_data_endpoint"`
	ActionsEndpoint  string            `json:"actions_endpoint" yaml:"actions_endpoint"`
	HealthEndpoint   string            `json:"health_endpoint" yaml:"health_endpoint"`
	Headers          map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Timing (seconds unless noted)
	RequestTimeout     float64 `json:"request_timeout" yaml:"request_timeout"`           // per HTTP request
	PollIntervalMs     int     `json:"poll_interval_ms" yaml:"poll_interval_ms"`         // result/action polling
	ActionTimeout      float64 `json:"action_timeout" yaml:"action_timeout"`             // dispatch-and-wait window
	StateCheckInterval float64 `json:"state_check_interval" yaml:"state_check_interval"` // monitor loop cadence

	// Retention
	CleanupInterval float64 `json:"cleanup_interval" yaml:"cleanup_interval"` // seconds between cleanup cycles
	CleanupMaxAge   float64 `json:"cleanup_max_age" yaml:"cleanup_max_age"`   // seconds before a channel file is stale

	// Journal (empty disables journaling)
	JournalDir string `json:"journal_dir" yaml:"journal_dir"`

	// Observability
	LogLevel        string `json:"log_level" yaml:"log_level"`
	TracingEndpoint string `json:"tracing_endpoint,omitempty" yaml:"tracing_endpoint,omitempty"`
}

// DefaultBridgeConfig returns a BridgeConfig with default values.
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		Transport: TransportFile,

		SharedDir: "shared",

		GameDataEndpoint: "/game-data",
		ActionsEndpoint:  "/actions",
		HealthEndpoint:   "/health",

		RequestTimeout:     5.0,
		PollIntervalMs:     100,
		ActionTimeout:      10.0,
		StateCheckInterval: 0.5,

		CleanupInterval: 60.0,
		CleanupMaxAge:   300.0,

		LogLevel: "INFO",
	}
}

// BridgeConfigFromMap creates BridgeConfig from a map.
// Unknown keys are ignored; values arriving as float64 from JSON decoding
// are accepted for integer fields.
func BridgeConfigFromMap(config map[string]any) *BridgeConfig {
	c := DefaultBridgeConfig()

	if v, ok := config["transport"].(string); ok {
		c.Transport = TransportKind(v)
	}
	c.SharedDir = typeutil.SafeString(config, "shared_dir", c.SharedDir)
	c.BaseURL = typeutil.SafeString(config, "base_url", c.BaseURL)
	c.GameDataEndpoint = typeutil.SafeString(config, "game_data_endpoint", c.GameDataEndpoint)
	c.ActionsEndpoint = typeutil.SafeString(config, "actions_endpoint", c.ActionsEndpoint)
	c.HealthEndpoint = typeutil.SafeString(config, "health_endpoint", c.HealthEndpoint)

	if v, ok := config["headers"].(map[string]any); ok {
		headers := make(map[string]string, len(v))
		for k, raw := range v {
			if s, ok := raw.(string); ok {
				headers[k] = s
			}
		}
		if len(headers) > 0 {
			c.Headers = headers
		}
	}

	c.RequestTimeout = typeutil.SafeFloat(config, "request_timeout", c.RequestTimeout)
	c.PollIntervalMs = typeutil.SafeInt(config, "poll_interval_ms", c.PollIntervalMs)
	c.ActionTimeout = typeutil.SafeFloat(config, "action_timeout", c.ActionTimeout)
	c.StateCheckInterval = typeutil.SafeFloat(config, "state_check_interval", c.StateCheckInterval)
	c.CleanupInterval = typeutil.SafeFloat(config, "cleanup_interval", c.CleanupInterval)
	c.CleanupMaxAge = typeutil.SafeFloat(config, "cleanup_max_age", c.CleanupMaxAge)
	c.JournalDir = typeutil.SafeString(config, "journal_dir", c.JournalDir)
	c.LogLevel = typeutil.SafeString(config, "log_level", c.LogLevel)
	c.TracingEndpoint = typeutil.SafeString(config, "tracing_endpoint", c.TracingEndpoint)

	return c
}

// ToMap converts the config to a map.
func (c *BridgeConfig) ToMap() map[string]any {
	m := map[string]any{
		"transport":            string(c.Transport),
		"shared_dir":           c.SharedDir,
		"base_url":             c.BaseURL,
		"game_data_endpoint":   c.GameDataEndpoint,
		"actions_endpoint":     c.ActionsEndpoint,
		"health_endpoint":      c.HealthEndpoint,
		"request_timeout":      c.RequestTimeout,
		"poll_interval_ms":     c.PollIntervalMs,
		"action_timeout":       c.ActionTimeout,
		"state_check_interval": c.StateCheckInterval,
		"cleanup_interval":     c.CleanupInterval,
		"cleanup_max_age":      c.CleanupMaxAge,
		"journal_dir":          c.JournalDir,
		"log_level":            c.LogLevel,
	}
	if c.TracingEndpoint != "" {
		m["tracing_endpoint"] = c.TracingEndpoint
	}
	if len(c.Headers) > 0 {
		headers := make(map[string]any, len(c.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		m["headers"] = headers
	}
	return m
}

// LoadFile reads a YAML config file and overlays it on the defaults.
func LoadFile(path string) (*BridgeConfig, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := DefaultBridgeConfig()
	if err := yaml.Unmarshal(payload, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the config for contradictions. It is called once at
// startup; a bad config should fail fast, not during steady-state polling.
func (c *BridgeConfig) Validate() error {
	switch c.Transport {
	case TransportFile:
		if c.SharedDir == "" {
			return fmt.Errorf("file transport requires shared_dir")
		}
	case TransportHTTPS:
		if c.BaseURL == "" {
			return fmt.Errorf("https transport requires base_url")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if c.ActionTimeout <= 0 {
		return fmt.Errorf("action_timeout must be positive")
	}
	if c.CleanupInterval <= 0 || c.CleanupMaxAge <= 0 {
		return fmt.Errorf("cleanup_interval and cleanup_max_age must be positive")
	}
	return nil
}

// PollInterval returns the polling cadence as a duration.
func (c *BridgeConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ActionTimeoutDuration returns the dispatch-and-wait window as a duration.
func (c *BridgeConfig) ActionTimeoutDuration() time.Duration {
	return secondsToDuration(c.ActionTimeout)
}

// RequestTimeoutDuration returns the per-request timeout as a duration.
func (c *BridgeConfig) RequestTimeoutDuration() time.Duration {
	return secondsToDuration(c.RequestTimeout)
}

// CleanupIntervalDuration returns the cleanup cadence as a duration.
func (c *BridgeConfig) CleanupIntervalDuration() time.Duration {
	return secondsToDuration(c.CleanupInterval)
}

// CleanupMaxAgeDuration returns the staleness cutoff as a duration.
func (c *BridgeConfig) CleanupMaxAgeDuration() time.Duration {
	return secondsToDuration(c.CleanupMaxAge)
}

// StateCheckIntervalDuration returns the monitor cadence as a duration.
func (c *BridgeConfig) StateCheckIntervalDuration() time.Duration {
	return secondsToDuration(c.StateCheckInterval)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
