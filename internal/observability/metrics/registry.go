// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics track catalog and review operations
var (
	// BooksWrittenTotal counts catalog mutations by operation (create, update, delete)
	BooksWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_books_written_total",
			Help: "Total number of book mutations",
		},
		[]string{"operation"},
	)

	// ReviewsWrittenTotal counts review mutations by operation
	ReviewsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_reviews_written_total",
			Help: "Total number of review mutations",
		},
		[]string{"operation"},
	)

	// RatingRecomputesTotal counts average rating recomputes by result
	RatingRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_rating_recomputes_total",
			Help: "Total number of average rating recomputes",
		},
		[]string{"result"}, // result: consistent, pending, gone
	)

	// RatingRecomputeDuration measures one recompute including retries
	RatingRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_rating_recompute_duration_seconds",
			Help:    "Time taken to recompute and store an average rating",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	// RatingPendingBooks is the size of the last reconcile batch
	RatingPendingBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_rating_pending_books",
			Help: "Books flagged for rating reconciliation at the last reconcile run",
		},
	)

	// ReconcileRunsTotal counts reconciler runs by result
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_rating_reconcile_runs_total",
			Help: "Total number of rating reconcile runs",
		},
		[]string{"result"},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks in-use database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
