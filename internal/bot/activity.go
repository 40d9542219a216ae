package bot

import (
	"context"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/storage"
)

// defaultMaxLoggedQueryLength is the privacy bound: queries longer than this
// are omitted from the activity log entirely, not truncated.
const defaultMaxLoggedQueryLength = 50

// ActivityLogger appends search activity to the search log. The log feeds
// the rate-limit quota, so every counted action must pass through here.
// Logging failures are reported operationally but never reach the user.
type ActivityLogger struct {
	logs        storage.SearchLogRepository
	retrier     *retry.Executor
	log         *logger.Logger
	maxQueryLen int
}

// NewActivityLogger creates an activity logger. A non-positive maxQueryLen
// selects the default privacy bound.
func NewActivityLogger(logs storage.SearchLogRepository, retrier *retry.Executor, log *logger.Logger, maxQueryLen int) *ActivityLogger {
	if retrier == nil {
		retrier = retry.NewDefault()
	}
	if maxQueryLen <= 0 {
		maxQueryLen = defaultMaxLoggedQueryLength
	}
	return &ActivityLogger{
		logs:        logs,
		retrier:     retrier,
		log:         log.WithModule("activity"),
		maxQueryLen: maxQueryLen,
	}
}

// LogSearch records a text search. The sanitized query is stored only when
// it fits the privacy bound.
func (a *ActivityLogger) LogSearch(ctx context.Context, userID, queryType, sanitizedQuery string) {
	entry := &storage.SearchLog{
		QueryType: queryType,
		UserID:    userID,
	}
	if len(sanitizedQuery) <= a.maxQueryLen {
		entry.Query = sanitizedQuery
	}

	a.insert(ctx, entry)
}

// LogNearby records a location-pin search with its coordinates.
func (a *ActivityLogger) LogNearby(ctx context.Context, userID string, lat, lon float64) {
	a.insert(ctx, &storage.SearchLog{
		QueryType: "nearby",
		UserID:    userID,
		Latitude:  lat,
		Longitude: lon,
		HasCoords: true,
	})
}

func (a *ActivityLogger) insert(ctx context.Context, entry *storage.SearchLog) {
	err := a.retrier.Do(ctx, func() error {
		return a.logs.InsertSearchLog(ctx, entry)
	})
	if err != nil {
		a.log.WithError(err).WithField("query_type", entry.QueryType).Error("failed to record search activity")
	}
}
