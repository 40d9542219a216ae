package storage

import (
	"context"
	"fmt"
	"time"
)

// MarkUpdateProcessed records a webhook update ID. Returns false when the ID
// was already recorded, meaning the platform redelivered the update.
func (db *DB) MarkUpdateProcessed(ctx context.Context, updateID int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_updates (update_id, processed_at)
		VALUES (?, ?)
	`, updateID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("mark update processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark update rows affected: %w", err)
	}

	return affected > 0, nil
}

// DeleteProcessedUpdatesBefore prunes dedup records older than cutoff and
// returns the number deleted.
func (db *DB) DeleteProcessedUpdatesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM processed_updates WHERE processed_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old processed updates: %w", err)
	}

	return result.RowsAffected()
}
