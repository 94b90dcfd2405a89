// Package main is the entry point for the Scanwatch token dashboard.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/scanwatch/dashboard/internal/api"
	"github.com/scanwatch/dashboard/internal/app"
	"github.com/scanwatch/dashboard/internal/config"
	"github.com/scanwatch/dashboard/internal/filter"
	"github.com/scanwatch/dashboard/internal/history"
	"github.com/scanwatch/dashboard/internal/session"
	"github.com/scanwatch/dashboard/internal/stats"
	"github.com/scanwatch/dashboard/internal/store"
	"github.com/scanwatch/dashboard/internal/token"
	"github.com/scanwatch/dashboard/internal/ui"
)

const (
	filterScope   = "ui"
	filterKey     = "filters"
	backgroundKey = "background"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("scanwatch starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"relay_ws_url", cfg.RelayWSURL,
		"relay_rest_url", cfg.RelayRESTURL,
		"heartbeat_interval", cfg.HeartbeatInterval,
		"reconnect_delay", cfg.ReconnectDelay,
		"flush_interval", cfg.FlushInterval,
		"flush_batch_limit", cfg.FlushBatchLimit,
		"history_ttl", cfg.HistoryTTL,
		"fetch_timeout", cfg.FetchTimeout,
		"max_records", cfg.MaxRecords,
		"state_dir", cfg.StateDir,
		"enable_tui", cfg.EnableTUI,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Local state store (filter preferences, history mirror)
	kv, err := store.Open(cfg.StateDir)
	if err != nil {
		slog.Error("failed to open state store", "error", err, "dir", cfg.StateDir)
		os.Exit(1)
	}

	filterState := loadFilterState(kv, cfg)

	collection := token.NewCollection()
	tracker := stats.NewTracker()
	client := api.NewClient(cfg.RelayRESTURL, cfg.FetchTimeout)

	// Notifications land before the TUI exists; route through an
	// atomic pointer filled in below.
	var tuiRef atomic.Pointer[ui.App]
	notify := func() {
		if tui := tuiRef.Load(); tui != nil {
			tui.RequestRefresh()
		}
	}

	histories := history.NewCache(client, kv, cfg.HistoryTTL, cfg.FetchTimeout,
		history.WithNotify(func(string) { notify() }))

	sess := session.New(session.Config{
		URL:               cfg.RelayWSURL,
		HeartbeatInterval: cfg.HeartbeatInterval,
		ReconnectDelay:    cfg.ReconnectDelay,
		FlushInterval:     cfg.FlushInterval,
		FlushLimit:        cfg.FlushBatchLimit,
	}, tracker)

	coordinator := app.NewCoordinator(collection, notify)

	// Cold start: seed the collection over REST so the list is not
	// empty while the socket hands over its initial batch.
	go func() {
		seedCtx, seedCancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		defer seedCancel()
		tokens, err := client.FetchTokens(seedCtx)
		if err != nil {
			slog.Warn("initial_fetch_failed", "error", err)
			return
		}
		collection.Apply(tokens)
		slog.Info("initial_tokens_loaded", "count", len(tokens))
		notify()
	}()

	sess.Start(ctx)
	go coordinator.Run(ctx, sess.Events())

	slog.Info("dashboard_started",
		"tui_enabled", cfg.EnableTUI,
	)

	if cfg.EnableTUI {
		slog.Info("starting_tui")
		tui := ui.NewApp(collection, histories, tracker, ui.Prefs{
			Filter:            filterState,
			PersistFilter:     persistFilterState(kv),
			Background:        loadBackground(kv),
			PersistBackground: persistBackground(kv),
		}, cfg.OverscanRows, cfg.UIRefreshRate)
		tuiRef.Store(tui)

		// Start TUI in goroutine so we can still handle signals
		go func() {
			if err := tui.Run(); err != nil {
				slog.Error("tui_error", "error", err)
				cancel()
			}
		}()

		// Wait for shutdown signal or context cancellation
		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
			tui.Stop()
		case <-ctx.Done():
			tui.Stop()
		}
	} else {
		// Headless mode: log session health periodically until signalled
		healthTicker := time.NewTicker(30 * time.Second)
		defer healthTicker.Stop()
	headless:
		for {
			select {
			case sig := <-sigChan:
				slog.Info("shutdown_signal_received", "signal", sig.String())
				break headless
			case <-healthTicker.C:
				snap := tracker.Snapshot()
				slog.Info("session_health",
					"state", snap.ConnectionState,
					"confirmed", snap.Confirmed,
					"messages", snap.MessagesTotal,
					"tokens", snap.TokensReceived,
					"dropped", snap.DroppedMessages,
					"rate", snap.MessageRate,
					"collection_size", collection.Len(),
				)
			}
		}
	}

	cancel()

	slog.Info("shutting_down", "status", "stopping session")
	sess.Stop()

	slog.Info("shutdown_complete")
}

// loadFilterState restores the persisted filter configuration, falling
// back to defaults seeded from the config cap.
func loadFilterState(kv *store.KV, cfg *config.Config) filter.State {
	st := filter.Default()
	st.MaxRecords = cfg.MaxRecords

	var saved filter.State
	found, err := kv.Get(filterScope, filterKey, &saved)
	if err != nil {
		slog.Warn("filter_state_load_failed", "error", err)
		return st
	}
	if !found {
		return st
	}
	if saved.SortBy == "" {
		saved.SortBy = filter.SortAge
	}
	if saved.MaxRecords < 1 {
		saved.MaxRecords = cfg.MaxRecords
	}
	return saved
}

// persistFilterState returns the write-through callback the UI invokes
// on every filter mutation.
func persistFilterState(kv *store.KV) func(filter.State) {
	return func(st filter.State) {
		if err := kv.Put(filterScope, filterKey, st); err != nil {
			slog.Warn("filter_state_save_failed", "error", err)
		}
	}
}

// loadBackground restores the persisted background-color preference.
func loadBackground(kv *store.KV) string {
	var name string
	if _, err := kv.Get(filterScope, backgroundKey, &name); err != nil {
		slog.Warn("background_load_failed", "error", err)
	}
	return name
}

// persistBackground returns the write-through callback for the
// background-color preference.
func persistBackground(kv *store.KV) func(string) {
	return func(name string) {
		if err := kv.Put(filterScope, backgroundKey, name); err != nil {
			slog.Warn("background_save_failed", "error", err)
		}
	}
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
