package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createLocationsTable(db); err != nil {
		return err
	}

	if err := createSearchLogsTable(db); err != nil {
		return err
	}

	if err := createUserStatesTable(db); err != nil {
		return err
	}

	if err := createTelegramUsersTable(db); err != nil {
		return err
	}

	return createProcessedUpdatesTable(db)
}

func createLocationsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		type TEXT CHECK(type IN ('city', 'town', 'village', 'postcode', 'other')) NOT NULL DEFAULT 'other',
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		rating REAL NOT NULL DEFAULT 0 CHECK(rating >= 0 AND rating <= 5),
		visits INTEGER NOT NULL DEFAULT 0 CHECK(visits >= 0),
		active INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_locations_name ON locations(name);
	CREATE INDEX IF NOT EXISTS idx_locations_type ON locations(type);
	CREATE INDEX IF NOT EXISTS idx_locations_active ON locations(active);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create locations table: %w", err)
	}

	return nil
}

func createSearchLogsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS search_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_type TEXT NOT NULL,
		query TEXT,
		latitude REAL,
		longitude REAL,
		telegram_user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_search_logs_user_created ON search_logs(telegram_user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_search_logs_created_at ON search_logs(created_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create search_logs table: %w", err)
	}

	return nil
}

func createUserStatesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS user_states (
		telegram_user_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		metadata TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create user_states table: %w", err)
	}

	return nil
}

func createTelegramUsersTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS telegram_users (
		telegram_id TEXT PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create telegram_users table: %w", err)
	}

	return nil
}

// createProcessedUpdatesTable tracks consumed update IDs so redelivered
// webhook events are acknowledged without double-processing.
func createProcessedUpdatesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS processed_updates (
		update_id INTEGER PRIMARY KEY,
		processed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_processed_updates_processed_at ON processed_updates(processed_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create processed_updates table: %w", err)
	}

	return nil
}
