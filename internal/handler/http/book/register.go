package book

import (
	"log/slog"
	"net/http"

	"bookshelf/internal/common/pagination"
	bookUC "bookshelf/internal/usecase/book"
)

// Mux is the subset of *http.ServeMux the handlers are registered on.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Deps carries what the book handlers share.
type Deps struct {
	Svc        *bookUC.Service
	Pagination pagination.Config
	Codec      *pagination.CursorCodec
	Logger     *slog.Logger
}

// Register registers all book-related HTTP handlers with the given mux.
// Reads are public. Mutations are wrapped with protect, which must
// authenticate the caller.
func Register(mux Mux, d Deps, protect func(http.Handler) http.Handler) {
	list := ListHandler{Svc: d.Svc, Pagination: d.Pagination, Codec: d.Codec, Logger: d.Logger}

	mux.Handle("GET /books", list)
	mux.Handle("GET /books/genres", GenresHandler{Svc: d.Svc})
	mux.Handle("GET /books/{id}", GetHandler{Svc: d.Svc})
	mux.Handle("GET /users/{id}/books", ListHandler{
		Svc: d.Svc, Pagination: d.Pagination, Codec: d.Codec, Logger: d.Logger, ByCreator: true,
	})

	mux.Handle("POST /books", protect(CreateHandler{Svc: d.Svc}))
	mux.Handle("PUT /books/{id}", protect(UpdateHandler{Svc: d.Svc}))
	mux.Handle("DELETE /books/{id}", protect(DeleteHandler{Svc: d.Svc}))
}
