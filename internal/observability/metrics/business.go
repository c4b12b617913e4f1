package metrics

import (
	"database/sql"
	"time"
)

// RecordBookWrite records a catalog mutation.
// Operation should be one of "create", "update" or "delete".
func RecordBookWrite(operation string) {
	BooksWrittenTotal.WithLabelValues(operation).Inc()
}

// RecordReviewWrite records a review mutation.
func RecordReviewWrite(operation string) {
	ReviewsWrittenTotal.WithLabelValues(operation).Inc()
}

// RecordRatingRecompute records the outcome and duration of one recompute.
// Result is "consistent" when the average was stored, "pending" when the book
// was left for the reconciler, and "gone" when the book no longer exists.
func RecordRatingRecompute(result string, duration time.Duration) {
	RatingRecomputesTotal.WithLabelValues(result).Inc()
	RatingRecomputeDuration.Observe(duration.Seconds())
}

// RecordReconcileRun records one reconciler pass and the batch it found.
func RecordReconcileRun(success bool, pending int) {
	result := "success"
	if !success {
		result = "failure"
	}
	ReconcileRunsTotal.WithLabelValues(result).Inc()
	RatingPendingBooks.Set(float64(pending))
}

// RecordOperationDuration records the duration of a named database operation.
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBStats copies connection pool statistics into the gauges.
func UpdateDBStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
