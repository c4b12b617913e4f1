package respond

import (
	"errors"
	"net/http"

	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/handler/http/pathutil"
	bookUC "bookshelf/internal/usecase/book"
	reviewUC "bookshelf/internal/usecase/review"
)

// StatusOf returns the HTTP status for an error from the use case layer.
// Unknown errors map to 500.
func StatusOf(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case entity.IsValidation(err),
		errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, pagination.ErrInvalidCursor),
		errors.Is(err, pathutil.ErrInvalidID),
		errors.Is(err, bookUC.ErrInvalidBookID),
		errors.Is(err, reviewUC.ErrInvalidReviewID):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, reviewUC.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, bookUC.ErrBookNotFound),
		errors.Is(err, reviewUC.ErrReviewNotFound),
		errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reviewUC.ErrAlreadyReviewed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
