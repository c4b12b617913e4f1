package memory

import (
	"context"
	"fmt"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/repository"
)

type reviewRecord struct{ r entity.Review }

func (r reviewRecord) identity() int64 { return r.r.ID }

func (r reviewRecord) text() string { return "" }

func (r reviewRecord) field(name string) (any, bool) {
	switch name {
	case filter.FieldID:
		return r.r.ID, true
	case filter.FieldBook:
		return r.r.BookID, true
	case filter.FieldUser:
		return r.r.UserID, true
	case filter.FieldRating:
		return int64(r.r.Rating), true
	case filter.FieldCreatedAt:
		return r.r.CreatedAt, true
	default:
		return nil, false
	}
}

type ReviewRepo struct{ s *Store }

func NewReviewRepo(s *Store) repository.ReviewRepository {
	return &ReviewRepo{s: s}
}

func (repo *ReviewRepo) records() []reviewRecord {
	out := make([]reviewRecord, 0, len(repo.s.reviews))
	for _, r := range repo.s.reviews {
		out = append(out, reviewRecord{r: r})
	}
	return out
}

func (repo *ReviewRepo) Find(_ context.Context, q pagination.Query) ([]*entity.Review, error) {
	withUser := false
	for _, rel := range q.Populate {
		if rel != repository.RelationUser {
			return nil, fmt.Errorf("Find: reviews have no relation %q", rel)
		}
		withUser = true
	}

	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()

	recs, err := window(repo.records(), q)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	reviews := make([]*entity.Review, 0, len(recs))
	for _, rec := range recs {
		review := rec.r
		review.User = nil
		if withUser {
			if u, ok := repo.s.users[review.UserID]; ok {
				review.User = &u
			}
		}
		reviews = append(reviews, &review)
	}
	return reviews, nil
}

func (repo *ReviewRepo) Get(_ context.Context, id int64) (*entity.Review, error) {
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()
	r, ok := repo.s.reviews[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (repo *ReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	for _, r := range repo.s.reviews {
		if r.BookID == review.BookID && r.UserID == review.UserID {
			return fmt.Errorf("Create: %w", repository.ErrDuplicate)
		}
	}
	repo.s.nextReviewID++
	now := repo.s.now()
	review.ID = repo.s.nextReviewID
	review.CreatedAt, review.UpdatedAt = now, now

	stored := *review
	stored.User = nil
	repo.s.journalReview(ctx, review.ID)
	repo.s.reviews[review.ID] = stored
	return nil
}

func (repo *ReviewRepo) Update(ctx context.Context, review *entity.Review) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	cur, ok := repo.s.reviews[review.ID]
	if !ok {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	cur.Rating, cur.Comment = review.Rating, review.Comment
	cur.UpdatedAt = repo.s.now()
	review.UpdatedAt = cur.UpdatedAt
	repo.s.journalReview(ctx, review.ID)
	repo.s.reviews[review.ID] = cur
	return nil
}

func (repo *ReviewRepo) Delete(ctx context.Context, id int64) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()
	if _, ok := repo.s.reviews[id]; !ok {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	repo.s.journalReview(ctx, id)
	delete(repo.s.reviews, id)
	return nil
}

func (repo *ReviewRepo) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	var n int64
	for id, r := range repo.s.reviews {
		if r.BookID == bookID {
			repo.s.journalReview(ctx, id)
			delete(repo.s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (repo *ReviewRepo) Count(_ context.Context, expr filter.Expr) (int64, error) {
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()

	n, err := count(repo.records(), expr)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *ReviewRepo) RatingStats(_ context.Context, bookID int64) (repository.RatingStats, error) {
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()

	var sum, n int64
	for _, r := range repo.s.reviews {
		if r.BookID == bookID {
			sum += int64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return repository.RatingStats{}, nil
	}
	return repository.RatingStats{Average: float64(sum) / float64(n), Count: n}, nil
}
