package review

import (
	"errors"
	"log/slog"
	"net/http"

	"bookshelf/internal/handler/http/auth"
	"bookshelf/internal/handler/http/pathutil"
	"bookshelf/internal/handler/http/respond"
	reviewUC "bookshelf/internal/usecase/review"
)

// RatingPendingHeader is set to "true" when a review write succeeded but the
// book's average rating is left for the reconciler.
const RatingPendingHeader = "X-Rating-Pending"

var errUnauthenticated = errors.New("unauthorized: missing user")

// CreateHandler serves POST /books/{id}/reviews.
type CreateHandler struct {
	Svc    *reviewUC.Service
	Logger *slog.Logger
}

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	bookID, err := pathutil.ParseID(r, "id")
	if err != nil {
		respond.Err(w, err)
		return
	}
	var req createRequest
	if err := pathutil.DecodeJSON(r, &req); err != nil {
		respond.Err(w, err)
		return
	}

	rv, err := h.Svc.Create(r.Context(), reviewUC.CreateInput{
		BookID:  bookID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if !committed(w, r, h.Logger, err) {
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(rv))
}

// UpdateHandler serves PUT /reviews/{id} for the review's author.
type UpdateHandler struct {
	Svc    *reviewUC.Service
	Logger *slog.Logger
}

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	id, err := pathutil.ParseID(r, "id")
	if err != nil {
		respond.Err(w, err)
		return
	}
	var req updateRequest
	if err := pathutil.DecodeJSON(r, &req); err != nil {
		respond.Err(w, err)
		return
	}

	rv, err := h.Svc.Update(r.Context(), reviewUC.UpdateInput{
		ID:      id,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if !committed(w, r, h.Logger, err) {
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(rv))
}

// DeleteHandler serves DELETE /reviews/{id} for the review's author.
type DeleteHandler struct {
	Svc    *reviewUC.Service
	Logger *slog.Logger
}

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	id, err := pathutil.ParseID(r, "id")
	if err != nil {
		respond.Err(w, err)
		return
	}
	if !committed(w, r, h.Logger, h.Svc.Delete(r.Context(), id, userID)) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// committed reports whether the write went through. A pending average
// rating still counts as committed and is flagged with RatingPendingHeader.
// Any other error is written to w.
func committed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, reviewUC.ErrRatingPending) {
		requestLogger(r.Context(), logger).Warn("review committed with pending rating",
			slog.Any("error", err))
		w.Header().Set(RatingPendingHeader, "true")
		return true
	}
	respond.Err(w, err)
	return false
}
