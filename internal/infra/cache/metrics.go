package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HitsTotal counts cache lookups served from the backend.
	HitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	// MissesTotal counts cache lookups that fell through to the source.
	MissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// ErrorsTotal counts backend failures by operation.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"cache", "op"},
	)
)

// RecordHit increments the hit counter for a cache.
func RecordHit(cacheName string) {
	HitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss increments the miss counter for a cache.
func RecordMiss(cacheName string) {
	MissesTotal.WithLabelValues(cacheName).Inc()
}

// RecordError increments the error counter for a cache operation.
func RecordError(cacheName, op string) {
	ErrorsTotal.WithLabelValues(cacheName, op).Inc()
}
