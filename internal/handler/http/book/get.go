package book

import (
	"net/http"

	"bookshelf/internal/handler/http/pathutil"
	"bookshelf/internal/handler/http/respond"
	bookUC "bookshelf/internal/usecase/book"
)

// GetHandler serves GET /books/{id}.
type GetHandler struct{ Svc *bookUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r, "id")
	if err != nil {
		respond.Err(w, err)
		return
	}
	b, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(b))
}

// GenresHandler serves GET /books/genres.
type GenresHandler struct{ Svc *bookUC.Service }

func (h GenresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Svc.Genres(r.Context())
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, genresResponse{Genres: genres})
}
