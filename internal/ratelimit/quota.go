package ratelimit

import (
	"context"
	"time"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/storage"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int
}

// SearchQuota enforces the per-user search allowance over a trailing window.
// The count comes from the search log itself, so the quota needs no separate
// bookkeeping and survives restarts.
//
// The quota fails open: when the count cannot be read, the search is allowed
// rather than blocking users on a storage fault.
type SearchQuota struct {
	logs    storage.SearchLogRepository
	limit   int
	window  time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewSearchQuota creates a quota of limit searches per trailing window.
func NewSearchQuota(logs storage.SearchLogRepository, limit int, window time.Duration, log *logger.Logger, m *metrics.Metrics) *SearchQuota {
	return &SearchQuota{
		logs:    logs,
		limit:   limit,
		window:  window,
		log:     log.WithModule("ratelimit"),
		metrics: m,
	}
}

// Limit returns the configured allowance.
func (q *SearchQuota) Limit() int {
	return q.limit
}

// Check reports whether the user may run another search right now. A denied
// check consumes nothing; allowance is reclaimed as old log rows age out of
// the window.
func (q *SearchQuota) Check(ctx context.Context, userID string) Decision {
	since := time.Now().Add(-q.window)

	count, err := q.logs.CountSearchesSince(ctx, userID, since)
	if err != nil {
		q.log.WithError(err).Warn("quota count failed, allowing search")
		return Decision{Allowed: true, Remaining: q.limit}
	}

	remaining := q.limit - count
	if remaining < 0 {
		remaining = 0
	}

	if count >= q.limit {
		if q.metrics != nil {
			q.metrics.RecordRateLimiterDenied("search")
		}
		return Decision{Allowed: false, Remaining: 0}
	}

	return Decision{Allowed: true, Remaining: remaining}
}

// Remaining returns how many searches the user has left in the window,
// without any denial side effects. Fails open to the full allowance.
func (q *SearchQuota) Remaining(ctx context.Context, userID string) int {
	since := time.Now().Add(-q.window)

	count, err := q.logs.CountSearchesSince(ctx, userID, since)
	if err != nil {
		q.log.WithError(err).Warn("quota count failed, reporting full allowance")
		return q.limit
	}

	remaining := q.limit - count
	if remaining < 0 {
		return 0
	}
	return remaining
}
