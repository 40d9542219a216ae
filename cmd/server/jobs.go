// Package main provides the Telegram location bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/telelocator/telelocator-go/internal/config"
	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/storage"
)

// pruneSearchLogs periodically deletes search log rows past the retention
// window. Retention must exceed the quota window or quotas would reset early;
// config guarantees that by defaulting retention to twice the window.
func pruneSearchLogs(ctx context.Context, db *storage.DB, cfg *config.Config, log *logger.Logger) {
	jobLog := log.WithModule("jobs")

	ticker := time.NewTicker(cfg.LogPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-cfg.LogRetention)

			deleted, err := db.DeleteSearchLogsBefore(ctx, cutoff)
			if err != nil {
				jobLog.WithError(err).Error("Search log prune failed")
				continue
			}
			if deleted > 0 {
				jobLog.WithField("deleted", deleted).Info("Pruned old search logs")
			}
		}
	}
}

// pruneProcessedUpdates periodically forgets deduplicated update IDs older
// than the dedup window. Telegram does not redeliver updates that old.
func pruneProcessedUpdates(ctx context.Context, db *storage.DB, cfg *config.Config, log *logger.Logger) {
	jobLog := log.WithModule("jobs")

	ticker := time.NewTicker(cfg.LogPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-cfg.UpdateDedupWindow)

			deleted, err := db.DeleteProcessedUpdatesBefore(ctx, cutoff)
			if err != nil {
				jobLog.WithError(err).Error("Dedup prune failed")
				continue
			}
			if deleted > 0 {
				jobLog.WithField("deleted", deleted).Info("Pruned old processed update ids")
			}
		}
	}
}
