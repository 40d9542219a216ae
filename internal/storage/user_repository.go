package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertTelegramUser records a user the bot has seen, refreshing last_seen
// and the mutable profile fields on conflict.
func (db *DB) UpsertTelegramUser(ctx context.Context, user *TelegramUser) error {
	now := time.Now().Unix()
	if user.FirstSeen == 0 {
		user.FirstSeen = now
	}
	if user.LastSeen == 0 {
		user.LastSeen = now
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO telegram_users (telegram_id, username, first_name, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_seen = excluded.last_seen
	`, user.TelegramID, user.Username, user.FirstName, user.FirstSeen, user.LastSeen)
	if err != nil {
		return fmt.Errorf("upsert telegram user: %w", err)
	}

	return nil
}

// GetTelegramUser returns a registry row by Telegram ID.
func (db *DB) GetTelegramUser(ctx context.Context, telegramID string) (*TelegramUser, error) {
	query := `
		SELECT telegram_id, username, first_name, first_seen, last_seen
		FROM telegram_users
		WHERE telegram_id = ?
	`

	var u TelegramUser
	err := db.conn.QueryRowContext(ctx, query, telegramID).Scan(
		&u.TelegramID, &u.Username, &u.FirstName, &u.FirstSeen, &u.LastSeen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query telegram user: %w", err)
	}

	return &u, nil
}

// CountTelegramUsers returns the number of users the bot has seen.
func (db *DB) CountTelegramUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM telegram_users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count telegram users: %w", err)
	}
	return count, nil
}
