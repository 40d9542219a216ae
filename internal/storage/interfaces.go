// Package storage provides repository interfaces for data access abstraction.
// These interfaces enable dependency inversion and facilitate testing by
// decoupling bot handlers from concrete storage implementations.
package storage

import (
	"context"
	"time"
)

// LocationRepository defines the interface for location directory operations.
type LocationRepository interface {
	GetLocationByID(ctx context.Context, id int64) (*Location, error)
	SearchLocations(ctx context.Context, params SearchParams) ([]Location, error)
	SearchNearby(ctx context.Context, lat, lon float64, limit int) ([]Location, error)
	SaveLocation(ctx context.Context, loc *Location) error
	IncrementVisit(ctx context.Context, id int64) error
	IncrementVisitsBatch(ctx context.Context, ids []int64) error
	CountLocations(ctx context.Context) (int, error)
}

// SearchLogRepository defines the interface for the append-only search log.
// The log doubles as the rate-limit counter source.
type SearchLogRepository interface {
	InsertSearchLog(ctx context.Context, log *SearchLog) error
	CountSearchesSince(ctx context.Context, userID string, since time.Time) (int, error)
	DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateRepository defines the interface for conversation state operations.
type StateRepository interface {
	// GetUserState returns the stored state, or nil when the user has none
	// (meaning the start state).
	GetUserState(ctx context.Context, userID string) (*UserState, error)

	// SetUserState unconditionally upserts the state, bumping the version.
	SetUserState(ctx context.Context, userID, state string, metadata map[string]string) error

	// CompareAndSetUserState writes only if the stored version still matches
	// expectedVersion. Returns ErrStaleState on a lost race.
	CompareAndSetUserState(ctx context.Context, userID string, expectedVersion int64, state string, metadata map[string]string) error

	// ClearUserState removes the row, returning the user to the start state.
	ClearUserState(ctx context.Context, userID string) error
}

// UserRepository defines the interface for the seen-user registry.
type UserRepository interface {
	UpsertTelegramUser(ctx context.Context, user *TelegramUser) error
	GetTelegramUser(ctx context.Context, telegramID string) (*TelegramUser, error)
	CountTelegramUsers(ctx context.Context) (int, error)
}

// DedupRepository defines the interface for webhook update deduplication.
type DedupRepository interface {
	// MarkUpdateProcessed records an update ID. Returns false when the ID was
	// already recorded, meaning the update is a redelivery.
	MarkUpdateProcessed(ctx context.Context, updateID int64) (bool, error)
	DeleteProcessedUpdatesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HealthRepository defines the interface for health check operations.
type HealthRepository interface {
	// Ping verifies database connection is alive.
	Ping(ctx context.Context) error

	// Ready checks if database is ready to serve queries.
	// Performs more thorough checks than Ping.
	Ready(ctx context.Context) error
}

// Repository is the aggregate interface that combines all repository interfaces.
// The DB type implements this interface, providing a single entry point for
// all data operations.
type Repository interface {
	LocationRepository
	SearchLogRepository
	StateRepository
	UserRepository
	DedupRepository
	HealthRepository
	Close() error
}

// Ensure DB implements all repository interfaces at compile time.
var (
	_ LocationRepository  = (*DB)(nil)
	_ SearchLogRepository = (*DB)(nil)
	_ StateRepository     = (*DB)(nil)
	_ UserRepository      = (*DB)(nil)
	_ DedupRepository     = (*DB)(nil)
	_ HealthRepository    = (*DB)(nil)
	_ Repository          = (*DB)(nil)
)
