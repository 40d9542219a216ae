// Package geocode resolves free-text place names to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/corpix/uarand"

	apperrors "github.com/telelocator/telelocator-go/internal/errors"
	"github.com/telelocator/telelocator-go/internal/metrics"
	"github.com/telelocator/telelocator-go/internal/retry"
	"github.com/telelocator/telelocator-go/internal/timeouts"
)

// DefaultBaseURL is the public Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Result is a resolved place.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Geocoder is the lookup surface handlers depend on.
type Geocoder interface {
	// Lookup resolves a query to its best match. Returns ErrGeocodeNotFound
	// when the service answers with no results and ErrGeocodeUnavailable when
	// the service itself fails.
	Lookup(ctx context.Context, query string) (*Result, error)
}

// Client queries a Nominatim-compatible endpoint over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retrier    *retry.Executor
	metrics    *metrics.Metrics
}

var _ Geocoder = (*Client)(nil)

// NewClient creates a geocoder client. An empty baseURL selects the public
// Nominatim endpoint. metrics may be nil in tests.
func NewClient(baseURL string, timeout time.Duration, retrier *retry.Executor, m *metrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = timeouts.GeocodeRequest
	}
	if retrier == nil {
		retrier = retry.NewDefault()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		retrier:    retrier,
		metrics:    m,
	}
}

// nominatimPlace is the subset of the search response the bot consumes.
// Nominatim returns coordinates as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup resolves a query to its best match.
func (c *Client) Lookup(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := c.baseURL + "/search?" + params.Encode()

	var places []nominatimPlace
	err := c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create geocode request: %w", err)
		}

		// Nominatim's usage policy requires an identifying User-Agent.
		req.Header.Set("User-Agent", uarand.GetRandom())
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("geocode request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("geocode status %d: %w", resp.StatusCode, apperrors.ErrGeocodeUnavailable)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read geocode response: %w", err)
		}

		places = places[:0]
		if err := json.Unmarshal(body, &places); err != nil {
			return fmt.Errorf("decode geocode response: %w", err)
		}

		return nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordGeocode("error")
			c.metrics.RecordRetryExhausted("geocode_lookup")
		}
		return nil, fmt.Errorf("geocode lookup: %w", err)
	}

	if len(places) == 0 {
		if c.metrics != nil {
			c.metrics.RecordGeocode("not_found")
		}
		return nil, apperrors.ErrGeocodeNotFound
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		if c.metrics != nil {
			c.metrics.RecordGeocode("error")
		}
		return nil, fmt.Errorf("geocode coordinates unparseable: %w", apperrors.ErrGeocodeUnavailable)
	}

	if c.metrics != nil {
		c.metrics.RecordGeocode("found")
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
	}, nil
}
