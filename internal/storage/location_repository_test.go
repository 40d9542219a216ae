package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/telelocator/telelocator-go/internal/errors"
)

func seedLocation(t *testing.T, db *DB, loc Location) Location {
	t.Helper()
	require.NoError(t, db.SaveLocation(context.Background(), &loc))
	return loc
}

func TestSaveAndGetLocation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	loc := seedLocation(t, db, Location{
		Name:      "Central Library",
		Address:   "1 Museum Road",
		Type:      TypeCity,
		Latitude:  51.5,
		Longitude: -0.12,
		Rating:    4.5,
		Active:    true,
	})
	require.NotZero(t, loc.ID, "insert should set the ID")

	got, err := db.GetLocationByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Central Library", got.Name)
	assert.Equal(t, TypeCity, got.Type)
	assert.True(t, got.Active)

	// Update path
	got.Rating = 3.0
	require.NoError(t, db.SaveLocation(ctx, got))
	updated, err := db.GetLocationByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.Rating)
}

func TestGetLocationByIDNotFound(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	_, err := db.GetLocationByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchLocations(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	seedLocation(t, db, Location{Name: "Springfield", Address: "Main St", Type: TypeCity, Active: true})
	seedLocation(t, db, Location{Name: "Springfield Heights", Address: "Hill Rd", Type: TypeTown, Active: true})
	seedLocation(t, db, Location{Name: "Shelbyville", Address: "Springfield Ave", Type: TypeCity, Active: true})
	seedLocation(t, db, Location{Name: "Old Springfield", Address: "Gone St", Type: TypeCity, Active: false})

	t.Run("matches name and address", func(t *testing.T) {
		got, err := db.SearchLocations(ctx, SearchParams{Term: "Springfield", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 3, "inactive rows are excluded")
	})

	t.Run("type filter", func(t *testing.T) {
		got, err := db.SearchLocations(ctx, SearchParams{Term: "Springfield", Type: TypeTown, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Springfield Heights", got[0].Name)
	})

	t.Run("ordered by name with limit", func(t *testing.T) {
		got, err := db.SearchLocations(ctx, SearchParams{Term: "Springfield", Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Shelbyville", got[0].Name)
		assert.Equal(t, "Springfield", got[1].Name)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := db.SearchLocations(ctx, SearchParams{Term: "Atlantis", Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("term too long", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'a'
		}
		_, err := db.SearchLocations(ctx, SearchParams{Term: string(long), Limit: 10})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestSearchLocationsEscapesLikeWildcards(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	seedLocation(t, db, Location{Name: "100% Coffee", Address: "Bean St", Type: TypeOther, Active: true})
	seedLocation(t, db, Location{Name: "1000 Cafes", Address: "Other St", Type: TypeOther, Active: true})

	got, err := db.SearchLocations(ctx, SearchParams{Term: "100%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1, "literal %% must not act as a wildcard")
	assert.Equal(t, "100% Coffee", got[0].Name)
}

func TestSearchNearby(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	near := seedLocation(t, db, Location{Name: "Near", Address: "a", Type: TypeCity, Latitude: 51.50, Longitude: -0.10, Active: true})
	mid := seedLocation(t, db, Location{Name: "Mid", Address: "b", Type: TypeCity, Latitude: 51.55, Longitude: -0.10, Active: true})
	seedLocation(t, db, Location{Name: "Far", Address: "c", Type: TypeCity, Latitude: 51.90, Longitude: -0.10, Active: true})
	seedLocation(t, db, Location{Name: "OutOfBox", Address: "d", Type: TypeCity, Latitude: 55.0, Longitude: -3.0, Active: true})
	seedLocation(t, db, Location{Name: "Inactive", Address: "e", Type: TypeCity, Latitude: 51.50, Longitude: -0.10, Active: false})

	got, err := db.SearchNearby(ctx, 51.50, -0.10, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID, "nearest first")
	assert.Equal(t, mid.ID, got[1].ID)
}

func TestIncrementVisit(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	loc := seedLocation(t, db, Location{Name: "A", Address: "a", Type: TypeCity, Active: true})

	require.NoError(t, db.IncrementVisit(ctx, loc.ID))
	require.NoError(t, db.IncrementVisit(ctx, loc.ID))

	got, err := db.GetLocationByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Visits)

	assert.ErrorIs(t, db.IncrementVisit(ctx, 9999), ErrNotFound)
}

func TestIncrementVisitsBatch(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	a := seedLocation(t, db, Location{Name: "A", Address: "a", Type: TypeCity, Active: true})
	b := seedLocation(t, db, Location{Name: "B", Address: "b", Type: TypeCity, Active: true})
	c := seedLocation(t, db, Location{Name: "C", Address: "c", Type: TypeCity, Active: true})

	// Unknown IDs in the batch are skipped, known ones still increment.
	require.NoError(t, db.IncrementVisitsBatch(ctx, []int64{a.ID, b.ID, 9999}))
	require.NoError(t, db.IncrementVisitsBatch(ctx, nil))

	for _, tc := range []struct {
		id   int64
		want int64
	}{
		{a.ID, 1},
		{b.ID, 1},
		{c.ID, 0},
	} {
		got, err := db.GetLocationByID(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Visits)
	}
}
