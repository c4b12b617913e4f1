package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authRequestsTotal counts bearer checks by result.
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_auth_requests_total",
			Help: "Total bearer token checks by result",
		},
		[]string{"result"}, // result: success | missing | invalid
	)

	// authDuration tracks token verification time.
	authDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_auth_duration_seconds",
			Help:    "Bearer token verification duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)
)

// RecordAuthRequest records the result of a bearer check.
func RecordAuthRequest(result string) {
	authRequestsTotal.WithLabelValues(result).Inc()
}

// RecordAuthDuration records token verification duration.
func RecordAuthDuration(durationSeconds float64) {
	authDuration.Observe(durationSeconds)
}
