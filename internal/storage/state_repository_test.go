package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserStateAbsent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	got, err := db.GetUserState(context.Background(), "42")
	require.NoError(t, err)
	assert.Nil(t, got, "absent row means the start state")
}

func TestSetUserStateUpsertBumpsVersion(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetUserState(ctx, "42", StateAwaitingLocation, nil))

	got, err := db.GetUserState(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StateAwaitingLocation, got.State)
	assert.Equal(t, int64(1), got.Version)

	require.NoError(t, db.SetUserState(ctx, "42", StateAwaitingLocationNumbers, map[string]string{"origin": "retry"}))

	got, err = db.GetUserState(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StateAwaitingLocationNumbers, got.State)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, map[string]string{"origin": "retry"}, got.Metadata)
}

func TestCompareAndSetUserState(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("insert from start state", func(t *testing.T) {
		require.NoError(t, db.CompareAndSetUserState(ctx, "u1", 0, StateAwaitingLocation, nil))

		got, err := db.GetUserState(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.Version)
	})

	t.Run("insert loses when row exists", func(t *testing.T) {
		require.NoError(t, db.SetUserState(ctx, "u2", StateAwaitingLocation, nil))

		err := db.CompareAndSetUserState(ctx, "u2", 0, StateAwaitingLocationNumbers, nil)
		assert.ErrorIs(t, err, ErrStaleState)
	})

	t.Run("update with matching version", func(t *testing.T) {
		require.NoError(t, db.SetUserState(ctx, "u3", StateAwaitingLocation, nil))

		require.NoError(t, db.CompareAndSetUserState(ctx, "u3", 1, StateAwaitingLocationNumbers, nil))

		got, err := db.GetUserState(ctx, "u3")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, StateAwaitingLocationNumbers, got.State)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("update with stale version", func(t *testing.T) {
		require.NoError(t, db.SetUserState(ctx, "u4", StateAwaitingLocation, nil))
		require.NoError(t, db.SetUserState(ctx, "u4", StateAwaitingLocation, nil)) // version now 2

		err := db.CompareAndSetUserState(ctx, "u4", 1, StateAwaitingLocationNumbers, nil)
		assert.ErrorIs(t, err, ErrStaleState)

		got, err := db.GetUserState(ctx, "u4")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, StateAwaitingLocation, got.State, "losing write must not change the row")
	})
}

func TestClearUserState(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetUserState(ctx, "42", StateAwaitingLocation, nil))
	require.NoError(t, db.ClearUserState(ctx, "42"))

	got, err := db.GetUserState(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing an absent row is fine
	require.NoError(t, db.ClearUserState(ctx, "42"))
}
