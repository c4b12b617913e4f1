// Package rating keeps each book's denormalized average rating in step with
// its reviews.
//
// Aggregator recomputes the average inline after review writes. When the
// write keeps failing, the book is flagged pending and Reconciler repairs it
// on its next scheduled pass.
package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bookshelf/internal/domain/entity"
	"bookshelf/internal/observability/metrics"
	"bookshelf/internal/repository"
	"bookshelf/internal/resilience/retry"
)

var tracer = otel.Tracer("bookshelf/rating")

// Result is the outcome of one recompute.
type Result struct {
	BookID  int64
	Average float64
	Count   int64
	Status  entity.RatingStatus
}

// Aggregator recomputes average ratings.
// Concurrent recomputes of the same book are not serialized; the last write wins.
type Aggregator struct {
	Books   repository.BookRepository
	Reviews repository.ReviewRepository
	Retry   retry.Config
	Logger  *slog.Logger
}

// NewAggregator creates an Aggregator with the rating write retry policy.
func NewAggregator(books repository.BookRepository, reviews repository.ReviewRepository) *Aggregator {
	return &Aggregator{
		Books:   books,
		Reviews: reviews,
		Retry:   retry.RatingWriteConfig(),
		Logger:  slog.Default(),
	}
}

// Recompute averages the book's review ratings (0 when it has none) and
// stores the value with status consistent.
//
// Transient failures are retried. When every attempt fails the book is
// flagged pending, and the returned Result carries that status along with
// the error. Review writes that triggered the recompute stay committed.
func (a *Aggregator) Recompute(ctx context.Context, bookID int64) (Result, error) {
	ctx, span := tracer.Start(ctx, "rating.Recompute")
	defer span.End()
	span.SetAttributes(attribute.Int64("book.id", bookID))

	start := time.Now()
	res := Result{BookID: bookID}

	err := retry.WithBackoff(ctx, a.Retry, func() error {
		stats, err := a.Reviews.RatingStats(ctx, bookID)
		if err != nil {
			return err
		}
		if err := a.Books.UpdateRating(ctx, bookID, stats.Average, entity.RatingConsistent); err != nil {
			return err
		}
		res.Average = stats.Average
		res.Count = stats.Count
		return nil
	})
	if err == nil {
		res.Status = entity.RatingConsistent
		metrics.RecordRatingRecompute("consistent", time.Since(start))
		span.SetAttributes(attribute.Float64("rating.average", res.Average))
		return res, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "recompute failed")

	if errors.Is(err, entity.ErrNotFound) {
		metrics.RecordRatingRecompute("gone", time.Since(start))
		return res, fmt.Errorf("Recompute: %w", err)
	}

	res.Status = entity.RatingPendingRecompute
	metrics.RecordRatingRecompute("pending", time.Since(start))
	if markErr := a.Books.MarkRatingPending(context.WithoutCancel(ctx), bookID); markErr != nil {
		a.logger().ErrorContext(ctx, "failed to flag rating for reconciliation",
			slog.Int64("book_id", bookID),
			slog.Any("error", markErr))
	} else {
		a.logger().WarnContext(ctx, "average rating left pending",
			slog.Int64("book_id", bookID),
			slog.Any("error", err))
	}
	return res, fmt.Errorf("Recompute: %w", err)
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
