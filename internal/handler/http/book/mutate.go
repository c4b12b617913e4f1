package book

import (
	"errors"
	"net/http"

	"bookshelf/internal/handler/http/auth"
	"bookshelf/internal/handler/http/pathutil"
	"bookshelf/internal/handler/http/respond"
	bookUC "bookshelf/internal/usecase/book"
)

var errUnauthenticated = errors.New("unauthorized: missing user")

// CreateHandler serves POST /books. The authenticated user becomes createdBy.
type CreateHandler struct{ Svc *bookUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	var req createRequest
	if err := pathutil.DecodeJSON(r, &req); err != nil {
		respond.Err(w, err)
		return
	}

	b, err := h.Svc.Create(r.Context(), bookUC.CreateInput{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		Description:   req.Description,
		CreatedBy:     userID,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(b))
}

// UpdateHandler serves PUT /books/{id}. Absent fields are left unchanged.
type UpdateHandler struct{ Svc *bookUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	b, err := h.Svc.Update(r.Context(), bookUC.UpdateInput{
		ID:            id,
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		Description:   req.Description,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(b))
}

// DeleteHandler serves DELETE /books/{id}, removing the book's reviews too.
type DeleteHandler struct{ Svc *bookUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r, "id")
	if err != nil {
		respond.Err(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		respond.Err(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
