package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/storage"
)

func TestVisitIncrementBatch(t *testing.T) {
	t.Parallel()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := NewVisitCounterBatcher(db, retry.New(1, time.Millisecond), logger.New("error"), nil)
	ctx := context.Background()

	a := seedBotLocation(t, db, storage.Location{Name: "A", Address: "a", Type: storage.TypeCity, Active: true})
	c := seedBotLocation(t, db, storage.Location{Name: "B", Address: "b", Type: storage.TypeCity, Active: true})

	// The same record twice in one result set counts once
	b.Increment(ctx, []storage.Location{a, c, a})
	b.Increment(ctx, nil)

	gotA, err := db.GetLocationByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotA.Visits)

	gotC, err := db.GetLocationByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotC.Visits)
}
