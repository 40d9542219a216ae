package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Telegram API metrics
	TelegramRequestsTotal   *prometheus.CounterVec
	TelegramDurationSeconds *prometheus.HistogramVec

	// Geocoder metrics
	GeocodeRequestsTotal *prometheus.CounterVec

	// Search metrics
	SearchesTotal        *prometheus.CounterVec
	SearchResultsCount   *prometheus.HistogramVec
	VisitIncrementsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDenied *prometheus.CounterVec

	// Retry metrics
	RetryExhaustedTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_webhook_requests_total",
				Help: "Total number of webhook updates by kind and status",
			},
			[]string{"kind", "status"}, // kind: command, state, text, location, invalid; status: success, error, skipped
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telelocator_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds by kind",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		),

		TelegramRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_telegram_requests_total",
				Help: "Total number of Telegram Bot API calls by method and status",
			},
			[]string{"method", "status"}, // status: success, error
		),

		TelegramDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telelocator_telegram_duration_seconds",
				Help:    "Telegram Bot API call duration in seconds by method",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method"},
		),

		GeocodeRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_geocode_requests_total",
				Help: "Total number of geocoder lookups by status",
			},
			[]string{"status"}, // status: found, not_found, error
		),

		SearchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_searches_total",
				Help: "Total number of location searches by query type and stage",
			},
			[]string{"query_type", "stage"}, // stage: typed, broadened, nearby
		),

		SearchResultsCount: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telelocator_search_results",
				Help:    "Number of records returned per search by query type",
				Buckets: []float64{0, 1, 2, 5, 10, 20},
			},
			[]string{"query_type"},
		),

		VisitIncrementsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_visit_increments_total",
				Help: "Total visit counter increments by path",
			},
			[]string{"path"}, // path: batch, fallback, fallback_error
		),

		RateLimiterDenied: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_rate_limiter_denied_total",
				Help: "Total number of actions denied by the rate limiter",
			},
			[]string{"action"}, // action: search, message, command
		),

		RetryExhaustedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelocator_retry_exhausted_total",
				Help: "Total number of operations that failed after all retry attempts",
			},
			[]string{"operation"},
		),
	}

	return m
}

// RecordWebhook records a processed webhook update
func (m *Metrics) RecordWebhook(kind, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(kind, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordTelegramRequest records a Telegram Bot API call
func (m *Metrics) RecordTelegramRequest(method, status string, duration float64) {
	m.TelegramRequestsTotal.WithLabelValues(method, status).Inc()
	m.TelegramDurationSeconds.WithLabelValues(method).Observe(duration)
}

// RecordGeocode records a geocoder lookup outcome
func (m *Metrics) RecordGeocode(status string) {
	m.GeocodeRequestsTotal.WithLabelValues(status).Inc()
}

// RecordSearch records a location search and its result count
func (m *Metrics) RecordSearch(queryType, stage string, results int) {
	m.SearchesTotal.WithLabelValues(queryType, stage).Inc()
	m.SearchResultsCount.WithLabelValues(queryType).Observe(float64(results))
}

// RecordVisitIncrement records visit counter updates by path
func (m *Metrics) RecordVisitIncrement(path string, count int) {
	m.VisitIncrementsTotal.WithLabelValues(path).Add(float64(count))
}

// RecordRateLimiterDenied records a denied action
func (m *Metrics) RecordRateLimiterDenied(action string) {
	m.RateLimiterDenied.WithLabelValues(action).Inc()
}

// RecordRetryExhausted records an operation that failed after all attempts
func (m *Metrics) RecordRetryExhausted(operation string) {
	m.RetryExhaustedTotal.WithLabelValues(operation).Inc()
}
