package bot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/sliceutil"
	"github.com/telelocator/telelocator-go/internal/storage"
)

// VisitCounterBatcher increments visit counters for returned locations.
// The primary path is one batch update; when that fails the batcher degrades
// to concurrent per-row increments where each row settles independently.
// Either way the user-visible response is unaffected.
type VisitCounterBatcher struct {
	locations storage.LocationRepository
	retrier   *retry.Executor
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewVisitCounterBatcher creates a batcher. metrics may be nil in tests.
func NewVisitCounterBatcher(locations storage.LocationRepository, retrier *retry.Executor, log *logger.Logger, m *metrics.Metrics) *VisitCounterBatcher {
	if retrier == nil {
		retrier = retry.NewDefault()
	}
	return &VisitCounterBatcher{
		locations: locations,
		retrier:   retrier,
		log:       log.WithModule("visits"),
		metrics:   m,
	}
}

// Increment raises the visit counter for every given location by one.
// Failures never propagate to the caller.
func (b *VisitCounterBatcher) Increment(ctx context.Context, locations []storage.Location) {
	if len(locations) == 0 {
		return
	}

	unique := sliceutil.Deduplicate(locations, func(l storage.Location) int64 { return l.ID })
	ids := make([]int64, 0, len(unique))
	for i := range unique {
		ids = append(ids, unique[i].ID)
	}

	err := b.retrier.Do(ctx, func() error {
		return b.locations.IncrementVisitsBatch(ctx, ids)
	})
	if err == nil {
		if b.metrics != nil {
			b.metrics.RecordVisitIncrement("batch", len(ids))
		}
		return
	}

	b.log.WithError(err).Warn("batch visit increment failed, falling back to per-row updates")

	// Settle-all: each row gets its own attempt, failures are logged and do
	// not abort the siblings.
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			rowErr := b.retrier.Do(ctx, func() error {
				return b.locations.IncrementVisit(ctx, id)
			})
			if rowErr != nil {
				b.log.WithError(rowErr).WithField("location_id", id).Error("visit increment failed")
				if b.metrics != nil {
					b.metrics.RecordVisitIncrement("fallback_error", 1)
				}
				return nil
			}
			if b.metrics != nil {
				b.metrics.RecordVisitIncrement("fallback", 1)
			}
			return nil
		})
	}
	_ = g.Wait()
}
