package db

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS books").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reviews").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMigrateUp_ReviewsCascadeWithBook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.MatchExpectationsInOrder(true)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS books").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS reviews.*book_id\s+BIGINT NOT NULL REFERENCES books\(id\) ON DELETE CASCADE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX").WillReturnError(sql.ErrConnDone)

	err = MigrateUp(db)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectTables(mock)
	for _, idx := range []string{
		"idx_books_average_rating", "idx_books_published_year", "idx_books_created_at",
		"idx_books_genre", "idx_books_created_by", "idx_books_rating_pending",
		"idx_books_search", "idx_reviews_book_id", "idx_reviews_book_rating",
	} {
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS " + idx).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err = MigrateUp(db)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_TableErrors(t *testing.T) {
	tables := []string{"users", "books", "reviews"}

	for i, failing := range tables {
		t.Run(failing, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			for _, ok := range tables[:i] {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + ok).
					WillReturnResult(sqlmock.NewResult(0, 0))
			}
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + failing).
				WillReturnError(sql.ErrConnDone)

			err = MigrateUp(db)
			assert.Equal(t, sql.ErrConnDone, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrateUp_IndexError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectTables(mock)
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_books_average_rating").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_books_published_year").
		WillReturnError(sql.ErrTxDone)

	err = MigrateUp(db)
	assert.Equal(t, sql.ErrTxDone, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DROP TABLE IF EXISTS reviews").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS books").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, MigrateDown(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
