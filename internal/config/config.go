// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, the Telegram bot, rate limits, and the geocoder client.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Telegram Bot Configuration
	TelegramBotToken string
	TelegramAPIBase  string // Bot API base URL (override for tests)
	WebhookURL       string // Public webhook URL registered at startup (empty = skip registration)
	InviteLink       string // Link sent by the /invite command

	// Geocoder Configuration
	GeocoderBaseURL string
	GeocoderTimeout time.Duration

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Sentry / Better Stack
	SentryToken       string // Better Stack Errors token (empty = disabled)
	SentryHost        string
	SentryEnvironment string
	BetterStackToken  string // Better Stack Logs token (empty = stdout only)
	BetterStackHost   string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir           string        // Data directory for SQLite database
	LogRetention      time.Duration // How long search log rows are kept (default: 2x quota window)
	LogPruneInterval  time.Duration // How often the prune job runs
	UpdateDedupWindow time.Duration // How long processed update IDs are remembered

	// Retry Configuration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	// Quotas (sliding windows counted against the search log)
	SearchQuota       int           // Searches allowed per quota window (default: 3)
	SearchQuotaWindow time.Duration // Trailing window for the search quota (default: 24h)
	MessagesPerMinute int           // Flood ceiling for any message (default: 20)
	CommandsPerMinute int           // Flood ceiling for commands (default: 10)

	// Result limits
	SingleResultLimit  int // Results for the /number flow (always 1)
	MultiResultLimit   int // Results for the /numbers flow (default: 5)
	TypedSearchLimit   int // Results for /city, /town, /village, /postcode (default: 10)
	NearbyResultLimit  int // Results when the user shares a location pin (default: 3)
	MaxQueryLogLength  int // Queries longer than this are never logged (privacy bound)
	MaxQueryInputChars int // Sanitizer truncation bound
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		InviteLink:       getEnv("INVITE_LINK", "https://t.me/telelocator_bot?start=invite"),

		GeocoderBaseURL: getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderTimeout: getDurationEnv("GEOCODER_TIMEOUT", 10*time.Second),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		SentryToken:       getEnv("SENTRY_TOKEN", ""),
		SentryHost:        getEnv("SENTRY_HOST", "errors.betterstack.com"),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
		BetterStackToken:  getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackHost:   getEnv("BETTERSTACK_ENDPOINT", ""),

		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataDir:           getEnv("DATA_DIR", "./data"),
		LogRetention:      getDurationEnv("LOG_RETENTION", 48*time.Hour),
		LogPruneInterval:  getDurationEnv("LOG_PRUNE_INTERVAL", 12*time.Hour),
		UpdateDedupWindow: getDurationEnv("UPDATE_DEDUP_WINDOW", 24*time.Hour),

		RetryMaxAttempts: getIntEnv("RETRY_MAX_ATTEMPTS", 4),
		RetryBaseDelay:   getDurationEnv("RETRY_BASE_DELAY", time.Second),

		Bot: BotConfig{
			SearchQuota:       getIntEnv("SEARCH_QUOTA", 3),
			SearchQuotaWindow: getDurationEnv("SEARCH_QUOTA_WINDOW", 24*time.Hour),
			MessagesPerMinute: getIntEnv("MESSAGES_PER_MINUTE", 20),
			CommandsPerMinute: getIntEnv("COMMANDS_PER_MINUTE", 10),

			SingleResultLimit:  1,
			MultiResultLimit:   getIntEnv("MULTI_RESULT_LIMIT", 5),
			TypedSearchLimit:   getIntEnv("TYPED_SEARCH_LIMIT", 10),
			NearbyResultLimit:  getIntEnv("NEARBY_RESULT_LIMIT", 3),
			MaxQueryLogLength:  getIntEnv("MAX_QUERY_LOG_LENGTH", 50),
			MaxQueryInputChars: getIntEnv("MAX_QUERY_INPUT_CHARS", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.GeocoderBaseURL == "" {
		errs = append(errs, errors.New("GEOCODER_BASE_URL is required"))
	}
	if c.RetryMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts))
	}
	if c.RetryBaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("RETRY_BASE_DELAY must be positive, got %v", c.RetryBaseDelay))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks bot-specific configuration values
func (c *BotConfig) Validate() error {
	var errs []error

	if c.SearchQuota <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_QUOTA must be positive, got %d", c.SearchQuota))
	}
	if c.SearchQuotaWindow <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH_QUOTA_WINDOW must be positive, got %v", c.SearchQuotaWindow))
	}
	if c.MultiResultLimit <= 0 {
		errs = append(errs, fmt.Errorf("MULTI_RESULT_LIMIT must be positive, got %d", c.MultiResultLimit))
	}
	if c.TypedSearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("TYPED_SEARCH_LIMIT must be positive, got %d", c.TypedSearchLimit))
	}
	if c.MessagesPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("MESSAGES_PER_MINUTE must be positive, got %d", c.MessagesPerMinute))
	}
	if c.CommandsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("COMMANDS_PER_MINUTE must be positive, got %d", c.CommandsPerMinute))
	}
	if c.MaxQueryLogLength <= 0 {
		errs = append(errs, fmt.Errorf("MAX_QUERY_LOG_LENGTH must be positive, got %d", c.MaxQueryLogLength))
	}
	if c.MaxQueryInputChars <= 0 {
		errs = append(errs, fmt.Errorf("MAX_QUERY_INPUT_CHARS must be positive, got %d", c.MaxQueryInputChars))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "bot.db")
}
