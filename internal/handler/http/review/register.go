package review

import (
	"log/slog"
	"net/http"

	"bookshelf/internal/common/pagination"
	reviewUC "bookshelf/internal/usecase/review"
)

// Mux is the subset of *http.ServeMux the handlers are registered on.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Deps carries what the review handlers share.
type Deps struct {
	Svc        *reviewUC.Service
	Pagination pagination.Config
	Codec      *pagination.CursorCodec
	Logger     *slog.Logger
}

// Register registers the review routes. Mutations are wrapped with protect,
// which must authenticate the caller.
func Register(mux Mux, d Deps, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /books/{id}/reviews", ListHandler{
		Svc: d.Svc, Pagination: d.Pagination, Codec: d.Codec, Logger: d.Logger,
	})
	mux.Handle("POST /books/{id}/reviews", protect(CreateHandler{Svc: d.Svc, Logger: d.Logger}))
	mux.Handle("PUT /reviews/{id}", protect(UpdateHandler{Svc: d.Svc, Logger: d.Logger}))
	mux.Handle("DELETE /reviews/{id}", protect(DeleteHandler{Svc: d.Svc, Logger: d.Logger}))
}
