package bot

import (
	"context"
	"fmt"

	"github.com/telelocator/telelocator-go/internal/logger"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/sanitize"
	"github.com/telelocator/telelocator-go/internal/storage"
)

// SearchResult carries the records a search produced and which stage
// produced them.
type SearchResult struct {
	Locations []storage.Location
	Stage     string // typed, broadened, nearby
}

// LocationSearchService runs the two-stage search: a typed search first,
// then, when the typed stage returns nothing and a filter was supplied, the
// same search broadened across all types.
type LocationSearchService struct {
	locations storage.LocationRepository
	retrier   *retry.Executor
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewLocationSearchService creates a search service. metrics may be nil in
// tests.
func NewLocationSearchService(locations storage.LocationRepository, retrier *retry.Executor, log *logger.Logger, m *metrics.Metrics) *LocationSearchService {
	if retrier == nil {
		retrier = retry.NewDefault()
	}
	return &LocationSearchService{
		locations: locations,
		retrier:   retrier,
		log:       log.WithModule("search"),
		metrics:   m,
	}
}

// Search sanitizes the query and runs the typed stage, broadening when the
// typed stage finds nothing. An empty result after both stages is not an
// error; callers render it as a not-found reply.
func (s *LocationSearchService) Search(ctx context.Context, rawQuery string, typeFilter storage.LocationType, limit int) (*SearchResult, error) {
	query := sanitize.Query(rawQuery)
	queryType := queryTypeLabel(typeFilter)

	typed, err := s.query(ctx, storage.SearchParams{Term: query, Type: typeFilter, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("typed search: %w", err)
	}

	if len(typed) > 0 || typeFilter == "" {
		stage := "typed"
		if typeFilter == "" {
			stage = "broadened"
		}
		if s.metrics != nil {
			s.metrics.RecordSearch(queryType, stage, len(typed))
		}
		return &SearchResult{Locations: typed, Stage: stage}, nil
	}

	broadened, err := s.query(ctx, storage.SearchParams{Term: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("broadened search: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSearch(queryType, "broadened", len(broadened))
	}

	return &SearchResult{Locations: broadened, Stage: "broadened"}, nil
}

// Nearby returns the closest active locations to a shared pin.
func (s *LocationSearchService) Nearby(ctx context.Context, lat, lon float64, limit int) (*SearchResult, error) {
	var locations []storage.Location
	err := s.retrier.Do(ctx, func() error {
		var err error
		locations, err = s.locations.SearchNearby(ctx, lat, lon, limit)
		return err
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRetryExhausted("search_nearby")
		}
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSearch("nearby", "nearby", len(locations))
	}

	return &SearchResult{Locations: locations, Stage: "nearby"}, nil
}

func (s *LocationSearchService) query(ctx context.Context, params storage.SearchParams) ([]storage.Location, error) {
	var locations []storage.Location
	err := s.retrier.Do(ctx, func() error {
		var err error
		locations, err = s.locations.SearchLocations(ctx, params)
		return err
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRetryExhausted("search_locations")
		}
		return nil, err
	}
	return locations, nil
}

func queryTypeLabel(t storage.LocationType) string {
	if t == "" {
		return "any"
	}
	return string(t)
}
