package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/repository"
)

type ReviewRepo struct {
	db *sql.DB
	qb *QueryBuilder
}

func NewReviewRepo(db *sql.DB) repository.ReviewRepository {
	return &ReviewRepo{db: db, qb: NewQueryBuilder(reviewColumns, "")}
}

const reviewColumnsSQL = `r.id, r.book_id, r.user_id, r.rating, r.comment, r.created_at, r.updated_at`

func scanReview(s scanner, withUser bool) (*entity.Review, error) {
	var review entity.Review
	dest := []any{
		&review.ID, &review.BookID, &review.UserID, &review.Rating, &review.Comment,
		&review.CreatedAt, &review.UpdatedAt,
	}
	var name, email sql.NullString
	if withUser {
		dest = append(dest, &name, &email)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if withUser && name.Valid {
		review.User = &entity.User{ID: review.UserID, Name: name.String, Email: email.String}
	}
	return &review, nil
}

func (repo *ReviewRepo) Find(ctx context.Context, q pagination.Query) ([]*entity.Review, error) {
	defer observe("reviews.find", time.Now())
	withUser := false
	for _, rel := range q.Populate {
		if rel != repository.RelationUser {
			return nil, fmt.Errorf("Find: reviews have no relation %q", rel)
		}
		withUser = true
	}

	where, args, err := repo.qb.BuildWhereClause(q.Filter, 1)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	orderBy, err := repo.qb.OrderBy(q.Sort)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}

	sel := "SELECT " + reviewColumnsSQL + "\nFROM reviews r"
	if withUser {
		sel = "SELECT " + reviewColumnsSQL + ", u.name, u.email\nFROM reviews r\nLEFT JOIN users u ON u.id = r.user_id"
	}
	args = append(args, q.Limit)
	query := strings.Join([]string{sel, where, orderBy, fmt.Sprintf("LIMIT $%d", len(args))}, "\n")

	rows, err := conn(ctx, repo.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reviews := make([]*entity.Review, 0, q.Limit)
	for rows.Next() {
		review, err := scanReview(rows, withUser)
		if err != nil {
			return nil, fmt.Errorf("Find: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (repo *ReviewRepo) Get(ctx context.Context, id int64) (*entity.Review, error) {
	query := "SELECT " + reviewColumnsSQL + `
FROM reviews r
WHERE r.id = $1
LIMIT 1`
	review, err := scanReview(conn(ctx, repo.db).QueryRowContext(ctx, query, id), false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return review, nil
}

func (repo *ReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	const query = `
INSERT INTO reviews (book_id, user_id, rating, comment)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`
	err := conn(ctx, repo.db).QueryRowContext(ctx, query,
		review.BookID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("Create: %w", repository.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ReviewRepo) Update(ctx context.Context, review *entity.Review) error {
	const query = `
UPDATE reviews SET
       rating     = $1,
       comment    = $2,
       updated_at = now()
WHERE id = $3
RETURNING updated_at`
	err := conn(ctx, repo.db).QueryRowContext(ctx, query,
		review.Rating, review.Comment, review.ID,
	).Scan(&review.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

func (repo *ReviewRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *ReviewRepo) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	const query = `DELETE FROM reviews WHERE book_id = $1`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query, bookID)
	if err != nil {
		return 0, fmt.Errorf("DeleteByBook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteByBook: %w", err)
	}
	return n, nil
}

func (repo *ReviewRepo) Count(ctx context.Context, expr filter.Expr) (int64, error) {
	defer observe("reviews.count", time.Now())
	where, args, err := repo.qb.BuildWhereClause(expr, 1)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	query := "SELECT COUNT(*) FROM reviews r " + where

	var total int64
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return total, nil
}

func (repo *ReviewRepo) RatingStats(ctx context.Context, bookID int64) (repository.RatingStats, error) {
	defer observe("reviews.rating_stats", time.Now())
	const query = `
SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
FROM reviews
WHERE book_id = $1`
	var stats repository.RatingStats
	if err := conn(ctx, repo.db).QueryRowContext(ctx, query, bookID).Scan(&stats.Average, &stats.Count); err != nil {
		return repository.RatingStats{}, fmt.Errorf("RatingStats: %w", err)
	}
	return stats, nil
}
