package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertSearchLog appends a search record. CreatedAt defaults to now when
// unset. The coordinate columns are written only when HasCoords is set.
func (db *DB) InsertSearchLog(ctx context.Context, log *SearchLog) error {
	if log.CreatedAt == 0 {
		log.CreatedAt = time.Now().Unix()
	}

	var query sql.NullString
	if log.Query != "" {
		query = sql.NullString{String: log.Query, Valid: true}
	}

	var lat, lon sql.NullFloat64
	if log.HasCoords {
		lat = sql.NullFloat64{Float64: log.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: log.Longitude, Valid: true}
	}

	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO search_logs (query_type, query, latitude, longitude, telegram_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.QueryType, query, lat, lon, log.UserID, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("search log insert id: %w", err)
	}
	log.ID = id

	return nil
}

// CountSearchesSince returns the number of search records a user has in the
// trailing window starting at since. This count drives the daily quota.
func (db *DB) CountSearchesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM search_logs
		WHERE telegram_user_id = ? AND created_at >= ?
	`, userID, since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count searches: %w", err)
	}

	return count, nil
}

// DeleteSearchLogsBefore removes records older than cutoff and returns the
// number deleted.
func (db *DB) DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM search_logs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old search logs: %w", err)
	}

	return result.RowsAffected()
}
