// Package timeouts provides centralized timeout constants for the application.
//
// These values account for:
//   - Telegram Bot API behavior (webhook delivery retries on non-200)
//   - Nominatim response times and usage policy
//   - SQLite performance characteristics (WAL mode, busy timeout)
package timeouts

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since Telegram sends small JSON payloads.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the HTTP server write timeout.
	// Must accommodate synchronous update processing: geocode plus store
	// lookups plus up to four reply attempts with backoff.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the HTTP server idle timeout for keep-alive connections.
	HTTPIdle = 90 * time.Second
)

// Outbound client timeouts
const (
	// TelegramRequest is the per-request timeout against the Bot API.
	TelegramRequest = 30 * time.Second

	// GeocodeRequest is the per-request timeout against the geocoder.
	// Nominatim usually answers within a second; anything slower is worth
	// abandoning so the webhook responds in time.
	GeocodeRequest = 10 * time.Second

	// Bootstrap bounds the startup webhook registration and command-list
	// publication.
	Bootstrap = 30 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Covers concurrent state writes from parallel webhook events.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)
