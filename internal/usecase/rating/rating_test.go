package rating_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/domain/entity"
	"bookshelf/internal/infra/adapter/persistence/memory"
	"bookshelf/internal/repository"
	"bookshelf/internal/resilience/retry"
	"bookshelf/internal/usecase/rating"
)

/* ───────── helpers ───────── */

// flakyBooks fails UpdateRating the first `failures` times.
type flakyBooks struct {
	repository.BookRepository
	failures  int32
	calls     int32
	transient bool
}

func (f *flakyBooks) UpdateRating(ctx context.Context, id int64, avg float64, status entity.RatingStatus) error {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		err := errors.New("connection reset")
		if f.transient {
			return retry.Transient(err)
		}
		return err
	}
	return f.BookRepository.UpdateRating(ctx, id, avg, status)
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

type fixture struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
	book    *entity.Book
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := memory.NewStore()
	f := fixture{books: memory.NewBookRepo(s), reviews: memory.NewReviewRepo(s)}
	f.book = &entity.Book{Title: "Dune", Author: "Herbert", Genre: "SciFi", PublishedYear: 1965, CreatedBy: 1}
	require.NoError(t, f.books.Create(context.Background(), f.book))
	return f
}

func (f fixture) review(t *testing.T, userID int64, stars int) *entity.Review {
	t.Helper()
	r := &entity.Review{BookID: f.book.ID, UserID: userID, Rating: stars}
	require.NoError(t, f.reviews.Create(context.Background(), r))
	return r
}

/* ───────── Aggregator ───────── */

func TestAggregator_Recompute_Average(t *testing.T) {
	f := newFixture(t)
	agg := rating.NewAggregator(f.books, f.reviews)
	ctx := context.Background()

	f.review(t, 1, 5)
	three := f.review(t, 2, 3)
	f.review(t, 3, 4)

	res, err := agg.Recompute(ctx, f.book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.Average, 1e-9)
	assert.Equal(t, int64(3), res.Count)
	assert.Equal(t, entity.RatingConsistent, res.Status)

	got, err := f.books.Get(ctx, f.book.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, 4.0, *got.AverageRating, 1e-9)

	require.NoError(t, f.reviews.Delete(ctx, three.ID))
	res, err = agg.Recompute(ctx, f.book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, res.Average, 1e-9)

	got, err = f.books.Get(ctx, f.book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, *got.AverageRating, 1e-9)
}

func TestAggregator_Recompute_NoReviews(t *testing.T) {
	f := newFixture(t)
	agg := rating.NewAggregator(f.books, f.reviews)

	res, err := agg.Recompute(context.Background(), f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Average)
	assert.Equal(t, int64(0), res.Count)

	got, err := f.books.Get(context.Background(), f.book.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 0.0, *got.AverageRating)
}

func TestAggregator_Recompute_RetriesTransient(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyBooks{BookRepository: f.books, failures: 2, transient: true}
	agg := rating.NewAggregator(flaky, f.reviews)
	agg.Retry = fastRetry()
	f.review(t, 1, 2)

	res, err := agg.Recompute(context.Background(), f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RatingConsistent, res.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.calls))
}

func TestAggregator_Recompute_MarksPendingOnFailure(t *testing.T) {
	tests := []struct {
		name      string
		transient bool
		wantCalls int32
	}{
		{name: "transient errors exhaust retries", transient: true, wantCalls: 3},
		{name: "permanent error is not retried", transient: false, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			flaky := &flakyBooks{BookRepository: f.books, failures: 100, transient: tt.transient}
			agg := rating.NewAggregator(flaky, f.reviews)
			agg.Retry = fastRetry()
			f.review(t, 1, 4)

			res, err := agg.Recompute(context.Background(), f.book.ID)
			require.Error(t, err)
			assert.Equal(t, entity.RatingPendingRecompute, res.Status)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&flaky.calls))

			got, err := f.books.Get(context.Background(), f.book.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.RatingPendingRecompute, got.RatingStatus)
			assert.Nil(t, got.AverageRating, "average is left untouched")
		})
	}
}

func TestAggregator_Recompute_BookGone(t *testing.T) {
	f := newFixture(t)
	agg := rating.NewAggregator(f.books, f.reviews)
	agg.Retry = fastRetry()

	_, err := agg.Recompute(context.Background(), 999)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	pending, err := f.books.ListPendingRating(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

/* ───────── Reconciler ───────── */

func TestReconciler_Run(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.review(t, 1, 5)
	f.review(t, 2, 2)

	other := &entity.Book{Title: "Emma", Author: "Austen", Genre: "Classic", PublishedYear: 1815, CreatedBy: 1}
	require.NoError(t, f.books.Create(ctx, other))

	require.NoError(t, f.books.MarkRatingPending(ctx, f.book.ID))
	require.NoError(t, f.books.MarkRatingPending(ctx, other.ID))

	agg := rating.NewAggregator(f.books, f.reviews)
	rec := rating.NewReconciler(f.books, agg, 1000, 10)

	stats, err := rec.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 2, stats.Repaired)
	assert.Equal(t, 0, stats.Failed)

	got, err := f.books.Get(ctx, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RatingConsistent, got.RatingStatus)
	assert.InDelta(t, 3.5, *got.AverageRating, 1e-9)

	pending, err := f.books.ListPendingRating(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReconciler_Run_FailedBookStaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.books.MarkRatingPending(ctx, f.book.ID))

	flaky := &flakyBooks{BookRepository: f.books, failures: 100}
	agg := rating.NewAggregator(flaky, f.reviews)
	agg.Retry = fastRetry()
	rec := rating.NewReconciler(flaky, agg, 1000, 0)

	stats, err := rec.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, rating.DefaultBatchSize, rec.BatchSize)

	pending, err := f.books.ListPendingRating(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{f.book.ID}, pending)
}

func TestReconciler_Run_CanceledContext(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.books.MarkRatingPending(context.Background(), f.book.ID))

	agg := rating.NewAggregator(f.books, f.reviews)
	rec := rating.NewReconciler(f.books, agg, 0.001, 10)
	// drain the single burst token so the next Wait must block
	_, err := rec.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.books.MarkRatingPending(context.Background(), f.book.ID))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rec.Run(ctx)
	assert.Error(t, err)
}
