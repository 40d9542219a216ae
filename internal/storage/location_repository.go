package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/telelocator/telelocator-go/internal/errors"
)

// SearchParams narrows a location search. Term is matched against name and
// address with a case-insensitive LIKE. An empty Type means no type filter.
type SearchParams struct {
	Term  string
	Type  LocationType
	Limit int
}

// GetLocationByID returns a single location by ID, active or not.
func (db *DB) GetLocationByID(ctx context.Context, id int64) (*Location, error) {
	query := `
		SELECT id, name, address, type, latitude, longitude, rating, visits, active
		FROM locations
		WHERE id = ?
	`

	loc, err := scanLocation(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query location by id: %w", err)
	}

	return loc, nil
}

// SearchLocations returns active locations whose name or address contains the
// term, ordered by name. Callers pass a Type to run the typed stage and omit
// it to run the broadened stage.
func (db *DB) SearchLocations(ctx context.Context, params SearchParams) ([]Location, error) {
	if len(params.Term) > 100 {
		return nil, fmt.Errorf("search term too long: %w", apperrors.ErrInvalidInput)
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	pattern := "%" + escapeLikeTerm(params.Term) + "%"

	var conditions []string
	var args []interface{}

	conditions = append(conditions, `(name LIKE ? ESCAPE '\' OR address LIKE ? ESCAPE '\')`)
	args = append(args, pattern, pattern)

	conditions = append(conditions, "active = 1")

	if params.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(params.Type))
	}

	query := `
		SELECT id, name, address, type, latitude, longitude, rating, visits, active
		FROM locations
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY name
		LIMIT ?
	`
	args = append(args, params.Limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}

	return locations, nil
}

// SearchNearby returns the closest active locations to the given coordinates,
// nearest first. Distance is computed in Go with the haversine formula over a
// coarse bounding-box prefilter.
func (db *DB) SearchNearby(ctx context.Context, lat, lon float64, limit int) ([]Location, error) {
	if limit <= 0 {
		limit = 3
	}

	// Roughly 50km at the equator. Wide enough that the in-Go sort decides.
	const boxDegrees = 0.5

	query := `
		SELECT id, name, address, type, latitude, longitude, rating, visits, active
		FROM locations
		WHERE active = 1
		  AND latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
	`

	rows, err := db.conn.QueryContext(ctx, query,
		lat-boxDegrees, lat+boxDegrees,
		lon-boxDegrees, lon+boxDegrees,
	)
	if err != nil {
		return nil, fmt.Errorf("query nearby locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type candidate struct {
		loc  Location
		dist float64
	}

	var candidates []candidate
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		candidates = append(candidates, candidate{
			loc:  *loc,
			dist: haversineKm(lat, lon, loc.Latitude, loc.Longitude),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby locations: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	locations := make([]Location, 0, len(candidates))
	for _, c := range candidates {
		locations = append(locations, c.loc)
	}

	return locations, nil
}

// SaveLocation inserts a location, or updates it when ID is set.
func (db *DB) SaveLocation(ctx context.Context, loc *Location) error {
	if loc.ID == 0 {
		query := `
			INSERT INTO locations (name, address, type, latitude, longitude, rating, visits, active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := db.conn.ExecContext(ctx, query,
			loc.Name, loc.Address, string(loc.Type),
			loc.Latitude, loc.Longitude, loc.Rating, loc.Visits, boolToInt(loc.Active),
		)
		if err != nil {
			return fmt.Errorf("insert location: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("location insert id: %w", err)
		}
		loc.ID = id

		return nil
	}

	query := `
		UPDATE locations
		SET name = ?, address = ?, type = ?, latitude = ?, longitude = ?, rating = ?, visits = ?, active = ?
		WHERE id = ?
	`
	if _, err := db.conn.ExecContext(ctx, query,
		loc.Name, loc.Address, string(loc.Type),
		loc.Latitude, loc.Longitude, loc.Rating, loc.Visits, boolToInt(loc.Active),
		loc.ID,
	); err != nil {
		return fmt.Errorf("update location: %w", err)
	}

	return nil
}

// IncrementVisit increments the visit counter for a single location.
func (db *DB) IncrementVisit(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, "UPDATE locations SET visits = visits + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("increment visit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment visit rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementVisitsBatch increments the visit counter for every given location
// in a single statement. Unknown IDs are silently skipped.
func (db *DB) IncrementVisitsBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "UPDATE locations SET visits = visits + 1 WHERE id IN (" + strings.Join(placeholders, ", ") + ")"

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("increment visits batch: %w", err)
	}

	return nil
}

// CountLocations returns the total number of locations, including inactive.
func (db *DB) CountLocations(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(row rowScanner) (*Location, error) {
	var loc Location
	var typeStr string
	var active int

	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Address, &typeStr,
		&loc.Latitude, &loc.Longitude, &loc.Rating, &loc.Visits, &active,
	)
	if err != nil {
		return nil, err
	}

	loc.Type = ParseLocationType(typeStr)
	loc.Active = active != 0

	return &loc, nil
}

// haversineKm returns the great-circle distance between two points in km.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
