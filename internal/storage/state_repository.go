package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrStaleState is returned by CompareAndSetUserState when the stored version
// no longer matches, meaning a concurrent event won the write.
var ErrStaleState = errors.New("user state version mismatch")

// GetUserState returns the stored conversation state for a user, or nil when
// the user has no row (the start state).
func (db *DB) GetUserState(ctx context.Context, userID string) (*UserState, error) {
	query := `
		SELECT telegram_user_id, state, metadata, version, updated_at
		FROM user_states
		WHERE telegram_user_id = ?
	`

	var us UserState
	var metadata sql.NullString

	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&us.UserID, &us.State, &metadata, &us.Version, &us.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user state: %w", err)
	}

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &us.Metadata); err != nil {
			return nil, fmt.Errorf("decode state metadata: %w", err)
		}
	}

	return &us, nil
}

// SetUserState unconditionally upserts the state for a user, bumping the
// version so concurrent compare-and-set writers lose.
func (db *DB) SetUserState(ctx context.Context, userID, state string, metadata map[string]string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO user_states (telegram_user_id, state, metadata, version, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(telegram_user_id) DO UPDATE SET
			state = excluded.state,
			metadata = excluded.metadata,
			version = user_states.version + 1,
			updated_at = excluded.updated_at
	`, userID, state, encoded, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set user state: %w", err)
	}

	return nil
}

// CompareAndSetUserState writes the state only if the stored version still
// matches expectedVersion. Use expectedVersion 0 when the caller read no row.
func (db *DB) CompareAndSetUserState(ctx context.Context, userID string, expectedVersion int64, state string, metadata map[string]string) error {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	if expectedVersion == 0 {
		// The caller saw no row. Insert fails when someone beat us to it.
		result, err := db.conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO user_states (telegram_user_id, state, metadata, version, updated_at)
			VALUES (?, ?, ?, 1, ?)
		`, userID, state, encoded, now)
		if err != nil {
			return fmt.Errorf("insert user state: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert user state rows affected: %w", err)
		}
		if affected == 0 {
			return ErrStaleState
		}

		return nil
	}

	result, err := db.conn.ExecContext(ctx, `
		UPDATE user_states
		SET state = ?, metadata = ?, version = version + 1, updated_at = ?
		WHERE telegram_user_id = ? AND version = ?
	`, state, encoded, now, userID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update user state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user state rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleState
	}

	return nil
}

// ClearUserState removes the row, returning the user to the start state.
// Clearing an absent row is not an error.
func (db *DB) ClearUserState(ctx context.Context, userID string) error {
	if _, err := db.conn.ExecContext(ctx,
		"DELETE FROM user_states WHERE telegram_user_id = ?", userID); err != nil {
		return fmt.Errorf("clear user state: %w", err)
	}

	return nil
}

func encodeMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode state metadata: %w", err)
	}

	return sql.NullString{String: string(data), Valid: true}, nil
}
