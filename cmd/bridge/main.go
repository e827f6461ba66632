// Card Bridge Daemon
//
// Standalone bridge process connecting an automated agent to a running game
// through shared JSON files or a remote HTTPS collector.
//
// Usage:
//
//	go run ./cmd/bridge                            # File transport in ./shared
//	go run ./cmd/bridge -config bridge.yaml        # Config file
//	go run ./cmd/bridge -transport https -base-url https://collector.example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardbridge/cardbridge/bridgecore/bridge"
	"github.com/cardbridge/cardbridge/bridgecore/config"
	"github.com/cardbridge/cardbridge/bridgecore/journal"
	"github.com/cardbridge/cardbridge/bridgecore/observability"
	"github.com/cardbridge/cardbridge/bridgecore/transport"
	"github.com/cardbridge/cardbridge/msgbus"
)

// stdLogger implements msgbus.Logger using standard library log.
type stdLogger struct{}

func (l *stdLogger) Debug(msg string, keysAndValues ...any) {
	log.Printf("[DEBUG] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Info(msg string, keysAndValues ...any) {
	log.Printf("[INFO] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Warn(msg string, keysAndValues ...any) {
	log.Printf("[WARN] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Error(msg string, keysAndValues ...any) {
	log.Printf("[ERROR] %s %v", msg, keysAndValues)
}

func main() {
	// Parse command-line flags; flags override the config file.
	configPath := flag.String("config", "", "YAML config file")
	transportKind := flag.String("transport", "", "transport kind: file or https")
	sharedDir := flag.String("shared-dir", "", "shared directory for the file transport")
	baseURL := flag.String("base-url", "", "base URL for the https transport")
	journalDir := flag.String("journal-dir", "", "directory for the envelope journal (empty disables)")
	metricsAddr := flag.String("metrics-addr", "", "address for the Prometheus /metrics endpoint (empty disables)")
	flag.Parse()

	logger := &stdLogger{}

	cfg := config.DefaultBridgeConfig()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *transportKind != "" {
		cfg.Transport = config.TransportKind(*transportKind)
	}
	if *sharedDir != "" {
		cfg.SharedDir = *sharedDir
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *journalDir != "" {
		cfg.JournalDir = *journalDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.Info("card_bridge_starting", "transport", cfg.Transport)

	if cfg.TracingEndpoint != "" {
		shutdown, err := observability.InitTracer("cardbridge", cfg.TracingEndpoint)
		if err != nil {
			logger.Warn("tracing_init_failed", "endpoint", cfg.TracingEndpoint, "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("tracing_shutdown_failed", "error", err)
				}
			}()
		}
	}

	var jnl *journal.Journal
	if cfg.JournalDir != "" {
		jnl = journal.New(cfg.JournalDir)
		defer jnl.Close()
		logger.Info("journal_enabled", "dir", cfg.JournalDir)
	}

	tracker := msgbus.NewSequenceTracker()
	var tr msgbus.Transport
	switch cfg.Transport {
	case config.TransportFile:
		tr = transport.NewFileTransport(cfg.SharedDir, tracker, logger).WithJournal(jnl)
		logger.Info("file_transport_configured", "shared_dir", cfg.SharedDir)
	case config.TransportHTTPS:
		https, err := transport.NewHTTPSTransport(transport.HTTPSConfig{
			BaseURL:          cfg.BaseURL,
			GameDataEndpoint: cfg.GameDataEndpoint,
			ActionsEndpoint:  cfg.ActionsEndpoint,
			HealthEndpoint:   cfg.HealthEndpoint,
			Timeout:          cfg.RequestTimeoutDuration(),
			Headers:          cfg.Headers,
		}, tracker, logger)
		if err != nil {
			log.Fatalf("Failed to configure https transport: %v", err)
		}
		tr = https.WithJournal(jnl)
		logger.Info("https_transport_configured", "base_url", cfg.BaseURL)
	}

	if !tr.IsAvailable(context.Background()) {
		logger.Warn("transport_not_yet_available", "transport", cfg.Transport)
	}

	manager := bridge.NewManager(tr, tracker, jnl, logger, bridge.Options{
		PollInterval:  cfg.PollInterval(),
		ActionTimeout: cfg.ActionTimeoutDuration(),
	})

	stopCleanup := manager.StartCleanupLoop(bridge.CleanupConfig{
		Interval: cfg.CleanupIntervalDuration(),
		MaxAge:   cfg.CleanupMaxAgeDuration(),
	})
	stopMonitor := manager.StartMonitorLoop(cfg.StateCheckIntervalDuration())

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics_server_failed", "addr", *metricsAddr, "error", err)
			}
		}()
		logger.Info("metrics_endpoint_ready", "addr", *metricsAddr)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("card_bridge_ready", "transport", cfg.Transport)
	fmt.Println("\nCard bridge running")
	fmt.Println("Press Ctrl+C to stop")

	sig := <-sigCh
	logger.Info("shutdown_signal_received", "signal", sig.String())

	stopMonitor()
	stopCleanup()
	logger.Info("card_bridge_stopped")
}
