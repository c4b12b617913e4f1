package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/infra/adapter/persistence/postgres"
)

/* ──────────────────────────────── helpers ──────────────────────────────── */

var bookCols = []string{
	"id", "title", "author", "genre", "isbn", "published_year",
	"average_rating", "rating_status", "description", "created_by",
	"created_at", "updated_at",
}

func bookRow(rows *sqlmock.Rows, b *entity.Book) *sqlmock.Rows {
	var avg interface{}
	if b.AverageRating != nil {
		avg = *b.AverageRating
	}
	return rows.AddRow(
		b.ID, b.Title, b.Author, b.Genre, b.ISBN, b.PublishedYear,
		avg, string(b.RatingStatus), b.Description, b.CreatedBy,
		b.CreatedAt, b.UpdatedAt,
	)
}

func ptr[T any](v T) *T { return &v }

/* ──────────────────────────────── 1. Get ──────────────────────────────── */

func TestBookRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now().UTC()
	want := &entity.Book{
		ID: 1, Title: "War and Peace", Author: "Tolstoy", Genre: "Classic",
		PublishedYear: 1869, AverageRating: ptr(4.5), RatingStatus: entity.RatingConsistent,
		CreatedBy: 3, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE b.id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(bookRow(sqlmock.NewRows(bookCols), want))

	repo := postgres.NewBookRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBookRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM books b`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	repo := postgres.NewBookRepo(db)
	got, err := repo.Get(context.Background(), 99)
	if err != nil || got != nil {
		t.Fatalf("Get got=%v err=%v, want nil,nil", got, err)
	}
}

func TestBookRepo_Get_NullAverage(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM books b`).
		WithArgs(int64(2)).
		WillReturnRows(bookRow(sqlmock.NewRows(bookCols), &entity.Book{ID: 2, Title: "New", RatingStatus: entity.RatingConsistent}))

	got, err := postgres.NewBookRepo(db).Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.AverageRating != nil {
		t.Fatalf("AverageRating = %v, want nil", *got.AverageRating)
	}
}

/* ──────────────────────────────── 2. Find ──────────────────────────────── */

func TestBookRepo_Find_Keyset(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE b.published_year >= $1 AND (COALESCE(b.average_rating, 0), b.id) < ($2, $3)
ORDER BY COALESCE(b.average_rating, 0) DESC, b.id DESC
LIMIT $4`)).
		WithArgs(1900.0, 4.0, int64(9), 3).
		WillReturnRows(bookRow(sqlmock.NewRows(bookCols), &entity.Book{ID: 8, Title: "Next", AverageRating: ptr(3.5)}))

	repo := postgres.NewBookRepo(db)
	got, err := repo.Find(context.Background(), pagination.Query{
		Filter: filter.And{
			filter.Range{Field: filter.FieldPublishedYear, Gte: ptr(1900.0)},
			filter.Keyset{Field: filter.FieldAverageRating, Op: filter.LessThan, Value: 4.0, ID: 9},
		},
		Sort:  pagination.SortKey{Field: filter.FieldAverageRating, Direction: pagination.Descending},
		Limit: 3,
	})
	if err != nil {
		t.Fatalf("Find err=%v", err)
	}
	if len(got) != 1 || got[0].ID != 8 {
		t.Fatalf("Find got=%v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBookRepo_Find_RejectsPopulate(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	_, err := postgres.NewBookRepo(db).Find(context.Background(), pagination.Query{
		Sort: pagination.DefaultSort, Limit: 1, Populate: []string{"user"},
	})
	if err == nil {
		t.Fatal("Find with populate should fail")
	}
}

func TestBookRepo_Find_QueryError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	boom := errors.New("db down")
	mock.ExpectQuery(`FROM books b`).WillReturnError(boom)

	_, err := postgres.NewBookRepo(db).Find(context.Background(), pagination.Query{Sort: pagination.DefaultSort, Limit: 11})
	if !errors.Is(err, boom) {
		t.Fatalf("Find err=%v, want %v", err, boom)
	}
}

/* ──────────────────────────────── 3. Create / Update / Delete ──────────────────────────────── */

func TestBookRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
		WithArgs("Dune", "Herbert", "SciFi", "", 1965, "consistent", "", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))

	book := &entity.Book{Title: "Dune", Author: "Herbert", Genre: "SciFi", PublishedYear: 1965, CreatedBy: 5}
	if err := postgres.NewBookRepo(db).Create(context.Background(), book); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if book.ID != 10 || !book.CreatedAt.Equal(now) || book.RatingStatus != entity.RatingConsistent {
		t.Fatalf("Create did not fill generated fields: %+v", book)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBookRepo_Update_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE books SET`)).
		WillReturnError(sql.ErrNoRows)

	err := postgres.NewBookRepo(db).Update(context.Background(), &entity.Book{ID: 4, Title: "x"})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Update err=%v, want ErrNotFound", err)
	}
}

func TestBookRepo_Delete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewBookRepo(db)
	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if err := repo.Delete(context.Background(), 4); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Delete missing err=%v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ──────────────────────────────── 4. Genres / rating ──────────────────────────────── */

func TestBookRepo_Genres(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT genre FROM books`)).
		WillReturnRows(sqlmock.NewRows([]string{"genre"}).AddRow("Classic").AddRow("Drama"))

	got, err := postgres.NewBookRepo(db).Genres(context.Background())
	if err != nil {
		t.Fatalf("Genres err=%v", err)
	}
	if diff := cmp.Diff([]string{"Classic", "Drama"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBookRepo_UpdateRating(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET`)).
		WithArgs(4.0, "consistent", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := postgres.NewBookRepo(db).UpdateRating(context.Background(), 7, 4.0, entity.RatingConsistent); err != nil {
		t.Fatalf("UpdateRating err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBookRepo_PendingRating(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET rating_status = $1 WHERE id = $2`)).
		WithArgs("pending", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE rating_status = $1`)).
		WithArgs("pending", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)).AddRow(int64(12)))

	repo := postgres.NewBookRepo(db)
	if err := repo.MarkRatingPending(context.Background(), 7); err != nil {
		t.Fatalf("MarkRatingPending err=%v", err)
	}
	ids, err := repo.ListPendingRating(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListPendingRating err=%v", err)
	}
	if diff := cmp.Diff([]int64{7, 12}, ids); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
