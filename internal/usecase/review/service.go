package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/infra/cache"
	"bookshelf/internal/observability/metrics"
	"bookshelf/internal/repository"
	bookUC "bookshelf/internal/usecase/book"
	"bookshelf/internal/usecase/rating"
)

// PageCountCollection prefixes the cached page counts of review listings.
const PageCountCollection = "reviews"

// CreateInput represents the input parameters for creating a review.
type CreateInput struct {
	BookID  int64
	UserID  int64
	Rating  int
	Comment string
}

// UpdateInput represents a partial review update by its author.
// Fields with nil values will not be updated.
type UpdateInput struct {
	ID      int64
	UserID  int64
	Rating  *int
	Comment *string
}

// Service provides review use cases.
type Service struct {
	Repo    repository.ReviewRepository
	Books   repository.BookRepository
	Ratings *rating.Aggregator
	// PageCounts may be nil, in which case page counts are computed per request.
	PageCounts *cache.PageCountCache
	Logger     *slog.Logger
}

// ListForBook returns one page of a book's reviews with each author's name
// and email populated. PageInfo.PageCount is filled from the page count cache.
func (s *Service) ListForBook(ctx context.Context, bookID int64, f filter.Expr, req pagination.Request) (pagination.Page[*entity.Review], error) {
	var page pagination.Page[*entity.Review]
	if _, err := s.book(ctx, bookID); err != nil {
		return page, err
	}

	base := filter.Merge(filter.Eq{Field: filter.FieldBook, Value: bookID}, f)

	var pages int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = pagination.Paginate[*entity.Review](gctx, s.Repo, Key, base, req,
			pagination.WithPopulate(repository.RelationUser))
		return err
	})
	g.Go(func() error {
		var err error
		pages, err = s.pageCount(gctx, bookID, base, f, req.Limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return pagination.Page[*entity.Review]{}, fmt.Errorf("list reviews: %w", err)
	}

	page.PageInfo.PageCount = &pages
	return page, nil
}

// pageCount uses the cache only for the unfiltered book scope; user filters
// would need their own keys and are counted directly.
func (s *Service) pageCount(ctx context.Context, bookID int64, base, f filter.Expr, limit int) (int, error) {
	count := func(ctx context.Context) (int64, error) {
		return s.Repo.Count(ctx, base)
	}
	if s.PageCounts == nil || !filter.IsEmpty(f) {
		total, err := count(ctx)
		if err != nil {
			return 0, err
		}
		return pagination.PageCount(total, limit), nil
	}
	scope := "book=" + strconv.FormatInt(bookID, 10)
	return s.PageCounts.PageCount(ctx, PageCountCollection, scope, limit, count)
}

// Get retrieves a single review by its ID.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Review, error) {
	if id <= 0 {
		return nil, ErrInvalidReviewID
	}
	r, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if r == nil {
		return nil, ErrReviewNotFound
	}
	return r, nil
}

// Create stores a review and recomputes the book's average rating.
// Returns ErrAlreadyReviewed if the user already reviewed the book.
// When the recompute fails the review is still returned, together with an
// error wrapping ErrRatingPending.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Review, error) {
	if in.UserID <= 0 {
		return nil, &entity.ValidationError{Field: "user", Message: "must be positive"}
	}
	if err := entity.ValidateRating(in.Rating); err != nil {
		return nil, err
	}
	if err := entity.ValidateComment(in.Comment); err != nil {
		return nil, err
	}
	if _, err := s.book(ctx, in.BookID); err != nil {
		return nil, err
	}

	r := &entity.Review{
		BookID:  in.BookID,
		UserID:  in.UserID,
		Rating:  in.Rating,
		Comment: in.Comment,
	}
	if err := s.Repo.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	metrics.RecordReviewWrite("create")

	return r, s.recompute(ctx, r.BookID)
}

// Update changes the rating or comment of the caller's own review. The
// book's average is recomputed only when the rating value changes.
// Returns ErrForbidden when the review belongs to another user.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Review, error) {
	r, err := s.owned(ctx, in.ID, in.UserID)
	if err != nil {
		return nil, err
	}

	ratingChanged := false
	if in.Rating != nil {
		if err := entity.ValidateRating(*in.Rating); err != nil {
			return nil, err
		}
		ratingChanged = *in.Rating != r.Rating
		r.Rating = *in.Rating
	}
	if in.Comment != nil {
		if err := entity.ValidateComment(*in.Comment); err != nil {
			return nil, err
		}
		r.Comment = *in.Comment
	}

	if err := s.Repo.Update(ctx, r); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	metrics.RecordReviewWrite("update")

	if !ratingChanged {
		return r, nil
	}
	return r, s.recompute(ctx, r.BookID)
}

// Delete removes the caller's own review and recomputes the book's average.
// Returns ErrForbidden when the review belongs to another user.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	r, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}
	metrics.RecordReviewWrite("delete")
	return s.recompute(ctx, r.BookID)
}

func (s *Service) book(ctx context.Context, id int64) (*entity.Book, error) {
	if id <= 0 {
		return nil, bookUC.ErrInvalidBookID
	}
	b, err := s.Books.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if b == nil {
		return nil, bookUC.ErrBookNotFound
	}
	return b, nil
}

func (s *Service) owned(ctx context.Context, id, userID int64) (*entity.Review, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}
	return r, nil
}

func (s *Service) recompute(ctx context.Context, bookID int64) error {
	if s.Ratings == nil {
		return nil
	}
	if _, err := s.Ratings.Recompute(ctx, bookID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			// The book was deleted meanwhile; there is no average to repair.
			s.logger().DebugContext(ctx, "book gone before average rating update",
				slog.Int64("book_id", bookID))
			return nil
		}
		s.logger().WarnContext(ctx, "review saved but average rating not updated",
			slog.Int64("book_id", bookID),
			slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrRatingPending, err)
	}
	return nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
