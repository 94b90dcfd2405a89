// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the Scanwatch dashboard.
type Config struct {
	// Relay endpoints
	RelayWSURL   string
	RelayRESTURL string

	// Session timing
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	FlushInterval     time.Duration
	FlushBatchLimit   int

	// History cache
	HistoryTTL   time.Duration
	FetchTimeout time.Duration

	// Display
	MaxRecords   int
	OverscanRows int

	// Local state
	StateDir string

	// UI
	EnableTUI     bool
	UIRefreshRate time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Relay
		RelayWSURL:   getEnv("RELAY_WS_URL", "ws://localhost:8080/ws"),
		RelayRESTURL: getEnv("RELAY_REST_URL", "http://localhost:8080"),

		// Session
		HeartbeatInterval: time.Duration(getEnvInt("HEARTBEAT_INTERVAL_SECONDS", 15)) * time.Second,
		ReconnectDelay:    time.Duration(getEnvInt("RECONNECT_DELAY_SECONDS", 5)) * time.Second,
		FlushInterval:     time.Duration(getEnvInt("FLUSH_INTERVAL_MS", 100)) * time.Millisecond,
		FlushBatchLimit:   getEnvInt("FLUSH_BATCH_LIMIT", 50),

		// History
		HistoryTTL:   time.Duration(getEnvInt("HISTORY_TTL_MINUTES", 5)) * time.Minute,
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		// Display
		MaxRecords:   getEnvInt("MAX_RECORDS", 100),
		OverscanRows: getEnvInt("OVERSCAN_ROWS", 5),

		// State
		StateDir: getEnv("STATE_DIR", "./data"),

		// UI
		EnableTUI:     getEnvBool("ENABLE_TUI", true),
		UIRefreshRate: time.Duration(getEnvInt("UI_REFRESH_MS", 500)) * time.Millisecond,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.RelayWSURL == "" {
		return fmt.Errorf("RELAY_WS_URL is required")
	}

	if c.RelayRESTURL == "" {
		return fmt.Errorf("RELAY_REST_URL is required")
	}

	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("HEARTBEAT_INTERVAL_SECONDS must be positive")
	}

	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("RECONNECT_DELAY_SECONDS must be positive")
	}

	if c.FlushBatchLimit < 1 {
		return fmt.Errorf("FLUSH_BATCH_LIMIT must be at least 1")
	}

	if c.MaxRecords < 1 {
		return fmt.Errorf("MAX_RECORDS must be at least 1")
	}

	if c.OverscanRows < 0 {
		return fmt.Errorf("OVERSCAN_ROWS must not be negative")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
