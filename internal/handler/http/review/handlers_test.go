package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/handler/http/auth"
	"bookshelf/internal/infra/adapter/persistence/memory"
	"bookshelf/internal/repository"
	"bookshelf/internal/resilience/retry"
	"bookshelf/internal/usecase/rating"
	reviewUC "bookshelf/internal/usecase/review"
)

var testSecret = []byte("handler-test-secret")

// readOnlyRatings fails every average write.
type readOnlyRatings struct {
	repository.BookRepository
}

func (readOnlyRatings) UpdateRating(context.Context, int64, float64, entity.RatingStatus) error {
	return errors.New("cannot execute UPDATE in a read-only transaction")
}

type listBody struct {
	Items    []DTO                   `json:"items"`
	PageInfo pagination.PageInfoJSON `json:"pageInfo"`
}

type fixture struct {
	t     *testing.T
	mux   *http.ServeMux
	books repository.BookRepository
	book  *entity.Book
}

func newFixture(t *testing.T, brokenRatings bool) fixture {
	t.Helper()
	s := memory.NewStore()
	s.AddUser(entity.User{ID: 1, Name: "Ann", Email: "ann@example.com"})
	s.AddUser(entity.User{ID: 2, Name: "Bob", Email: "bob@example.com"})

	books := memory.NewBookRepo(s)
	reviews := memory.NewReviewRepo(s)
	book := &entity.Book{Title: "Dune", Author: "Herbert", Genre: "SciFi", PublishedYear: 1965, CreatedBy: 1}
	require.NoError(t, books.Create(context.Background(), book))

	ratingBooks := books
	if brokenRatings {
		ratingBooks = readOnlyRatings{BookRepository: books}
	}
	agg := rating.NewAggregator(ratingBooks, reviews)
	agg.Retry = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}

	mux := http.NewServeMux()
	Register(mux, Deps{
		Svc:        &reviewUC.Service{Repo: reviews, Books: books, Ratings: agg},
		Pagination: pagination.Config{DefaultLimit: 10, MaxLimit: 100},
		Codec:      pagination.NewCursorCodec([]byte("cursor-secret")),
	}, (&auth.Authenticator{Secret: testSecret}).Require)

	return fixture{t: t, mux: mux, books: books, book: book}
}

func (f fixture) do(method, target string, userID int64, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if userID > 0 {
		tok, err := auth.IssueToken(testSecret, userID, time.Hour, time.Now())
		require.NoError(f.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f fixture) reviewsPath() string {
	return "/books/" + strconv.FormatInt(f.book.ID, 10) + "/reviews"
}

func (f fixture) post(userID int64, stars int) DTO {
	f.t.Helper()
	rec := f.do(http.MethodPost, f.reviewsPath(), userID, map[string]any{"rating": stars, "comment": "ok"})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var dto DTO
	require.NoError(f.t, json.NewDecoder(rec.Body).Decode(&dto))
	return dto
}

func (f fixture) average() *float64 {
	f.t.Helper()
	b, err := f.books.Get(context.Background(), f.book.ID)
	require.NoError(f.t, err)
	return b.AverageRating
}

func TestCreate_UpdatesAverage(t *testing.T) {
	f := newFixture(t, false)

	first := f.post(1, 5)
	assert.Equal(t, int64(1), first.UserID)
	f.post(2, 2)

	avg := f.average()
	require.NotNil(t, avg)
	assert.InDelta(t, 3.5, *avg, 1e-9)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t, false)
	f.post(1, 4)

	tests := []struct {
		name       string
		target     string
		userID     int64
		body       any
		wantStatus int
	}{
		{name: "no token", target: f.reviewsPath(), body: map[string]any{"rating": 3}, wantStatus: http.StatusUnauthorized},
		{name: "second review by same user", target: f.reviewsPath(), userID: 1, body: map[string]any{"rating": 3}, wantStatus: http.StatusConflict},
		{name: "rating out of range", target: f.reviewsPath(), userID: 2, body: map[string]any{"rating": 6}, wantStatus: http.StatusBadRequest},
		{name: "unknown book", target: "/books/999/reviews", userID: 2, body: map[string]any{"rating": 3}, wantStatus: http.StatusNotFound},
		{name: "bad book id", target: "/books/x/reviews", userID: 2, body: map[string]any{"rating": 3}, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, tt.target, tt.userID, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestCreate_RatingPending(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodPost, f.reviewsPath(), 1, map[string]any{"rating": 4})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "true", rec.Header().Get(RatingPendingHeader))
	b, err := f.books.Get(context.Background(), f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RatingPendingRecompute, b.RatingStatus)
}

func TestUpdateDelete_Ownership(t *testing.T) {
	f := newFixture(t, false)
	mine := f.post(1, 5)
	f.post(2, 3)
	target := "/reviews/" + strconv.FormatInt(mine.ID, 10)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPut, target, 2, map[string]any{"rating": 1}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, target, 2, nil).Code)

	rec := f.do(http.MethodPut, target, 1, map[string]any{"rating": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 2.0, *f.average(), 1e-9)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, target, 1, nil).Code)
	assert.InDelta(t, 3.0, *f.average(), 1e-9)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, target, 1, nil).Code)
}

func TestList(t *testing.T) {
	f := newFixture(t, false)
	f.post(1, 5)
	f.post(2, 2)

	rec := f.do(http.MethodGet, f.reviewsPath()+"?limit=1", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body listBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	require.Len(t, body.Items, 1)
	require.NotNil(t, body.Items[0].User)
	assert.Equal(t, "Bob", body.Items[0].User.Name, "newest first")
	assert.True(t, body.PageInfo.HasNextPage)
	require.NotNil(t, body.PageInfo.PageCount)
	assert.Equal(t, 2, *body.PageInfo.PageCount)

	rec = f.do(http.MethodGet, f.reviewsPath()+"?rating[gte]=4", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = listBody{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 5, body.Items[0].Rating)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/books/999/reviews", 0, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, f.reviewsPath()+"?sort=comment", 0, nil).Code)
}
