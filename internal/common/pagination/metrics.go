package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts the total number of keyset window fetches.
	// Labels: direction (forward, backward), result (empty, partial)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_pagination_requests_total",
			Help: "Total number of keyset pagination requests",
		},
		[]string{"direction", "result"},
	)

	// DurationSeconds tracks window fetch duration distribution.
	// Labels: direction
	DurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_pagination_duration_seconds",
			Help:    "Keyset window fetch duration distribution",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
		},
		[]string{"direction"},
	)

	// ErrorsTotal counts pagination errors by type.
	// Labels: type (validation, filter, storage)
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_pagination_errors_total",
			Help: "Total number of pagination errors",
		},
		[]string{"type"},
	)
)

// RecordRequest records a completed window fetch.
func RecordRequest(direction string, returned int) {
	result := "partial"
	if returned == 0 {
		result = "empty"
	}
	RequestsTotal.WithLabelValues(direction, result).Inc()
}

// RecordDuration records fetch duration in seconds.
func RecordDuration(direction string, duration float64) {
	DurationSeconds.WithLabelValues(direction).Observe(duration)
}

// RecordError records an error metric.
// errorType should be one of: "validation", "storage"
func RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
