package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"bookshelf/internal/domain/entity"
	"bookshelf/internal/observability/metrics"
	"bookshelf/internal/repository"
)

// DefaultBatchSize is the number of pending books repaired per run.
const DefaultBatchSize = 100

// Stats summarizes one reconciler run.
type Stats struct {
	Pending  int
	Repaired int
	Failed   int
	Duration time.Duration
}

// Reconciler repairs books whose average rating is flagged pending.
type Reconciler struct {
	Books      repository.BookRepository
	Aggregator *Aggregator
	BatchSize  int
	Logger     *slog.Logger

	limiter *rate.Limiter
}

// NewReconciler creates a Reconciler that recomputes at most perSecond books
// per second.
func NewReconciler(books repository.BookRepository, agg *Aggregator, perSecond float64, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Reconciler{
		Books:      books,
		Aggregator: agg,
		BatchSize:  batchSize,
		Logger:     slog.Default(),
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Run recomputes one batch of pending books. A failed book stays pending for
// the next run; Run only returns an error when the batch cannot be listed or
// ctx ends.
func (r *Reconciler) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	var stats Stats

	ids, err := r.Books.ListPendingRating(ctx, r.BatchSize)
	if err != nil {
		metrics.RecordReconcileRun(false, 0)
		return stats, fmt.Errorf("Run: %w", err)
	}
	stats.Pending = len(ids)

	for _, id := range ids {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				stats.Duration = time.Since(start)
				metrics.RecordReconcileRun(false, stats.Pending)
				return stats, fmt.Errorf("Run: %w", err)
			}
		}
		if _, err := r.Aggregator.Recompute(ctx, id); err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				continue
			}
			stats.Failed++
			r.Logger.WarnContext(ctx, "reconcile failed",
				slog.Int64("book_id", id),
				slog.Any("error", err))
			continue
		}
		stats.Repaired++
	}

	stats.Duration = time.Since(start)
	metrics.RecordReconcileRun(true, stats.Pending)
	r.Logger.InfoContext(ctx, "rating reconcile completed",
		slog.Int("pending", stats.Pending),
		slog.Int("repaired", stats.Repaired),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}
