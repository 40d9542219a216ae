package bot

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/storage"
)

func setupActivityLogger(t *testing.T) (*ActivityLogger, *storage.DB) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewActivityLogger(db, retry.New(1, time.Millisecond), logger.New("error"), 0), db
}

func lastLoggedQuery(t *testing.T, db *storage.DB) sql.NullString {
	t.Helper()
	var q sql.NullString
	err := db.Conn().QueryRow(
		"SELECT query FROM search_logs ORDER BY id DESC LIMIT 1").Scan(&q)
	require.NoError(t, err)
	return q
}

func TestLogSearchStoresShortQuery(t *testing.T) {
	t.Parallel()
	a, db := setupActivityLogger(t)

	a.LogSearch(context.Background(), "42", "single", "London")

	q := lastLoggedQuery(t, db)
	require.True(t, q.Valid)
	assert.Equal(t, "London", q.String)
}

func TestLogSearchOmitsLongQuery(t *testing.T) {
	t.Parallel()
	a, db := setupActivityLogger(t)

	long := strings.Repeat("x", defaultMaxLoggedQueryLength+1)
	a.LogSearch(context.Background(), "42", "single", long)

	q := lastLoggedQuery(t, db)
	assert.False(t, q.Valid, "queries over the privacy bound are omitted, not truncated")

	// The row itself still exists and counts against the quota
	count, err := db.CountSearchesSince(context.Background(), "42", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLogSearchConfigurableBound(t *testing.T) {
	t.Parallel()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := NewActivityLogger(db, retry.New(1, time.Millisecond), logger.New("error"), 10)

	a.LogSearch(context.Background(), "42", "single", "elevenchars")
	q := lastLoggedQuery(t, db)
	assert.False(t, q.Valid, "the configured bound applies instead of the default")

	a.LogSearch(context.Background(), "42", "single", "tencharsxx")
	q = lastLoggedQuery(t, db)
	require.True(t, q.Valid)
	assert.Equal(t, "tencharsxx", q.String)
}

func TestLogNearbyStoresCoordinates(t *testing.T) {
	t.Parallel()
	a, db := setupActivityLogger(t)

	a.LogNearby(context.Background(), "42", 48.85, 2.35)

	var lat, lon sql.NullFloat64
	var queryType string
	err := db.Conn().QueryRow(
		"SELECT query_type, latitude, longitude FROM search_logs ORDER BY id DESC LIMIT 1").
		Scan(&queryType, &lat, &lon)
	require.NoError(t, err)

	assert.Equal(t, "nearby", queryType)
	require.True(t, lat.Valid)
	require.True(t, lon.Valid)
	assert.Equal(t, 48.85, lat.Float64)
	assert.Equal(t, 2.35, lon.Float64)
}
