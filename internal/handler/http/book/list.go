package book

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/handler/http/pathutil"
	"bookshelf/internal/handler/http/respond"
	"bookshelf/internal/observability/logging"
	bookUC "bookshelf/internal/usecase/book"
)

// ListHandler serves GET /books and, with ByCreator, GET /users/{id}/books.
type ListHandler struct {
	Svc        *bookUC.Service
	Pagination pagination.Config
	Codec      *pagination.CursorCodec
	Logger     *slog.Logger
	ByCreator  bool
}

// ServeHTTP lists books with filters (genre, author, q, publishedYear and
// rating ranges), sort and cursor pagination.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	logger := h.logger(ctx)

	req, err := pagination.ParseQueryParams(r, h.Pagination, bookUC.Sortable, h.Codec)
	if err != nil {
		pagination.LogRejected(ctx, logger, "books", err, "validation")
		respond.Err(w, err)
		return
	}
	f, err := filter.BuildBookFilters(r.URL.Query())
	if err != nil {
		pagination.LogRejected(ctx, logger, "books", err, "filter")
		respond.Err(w, err)
		return
	}

	var page pagination.Page[*entity.Book]
	if h.ByCreator {
		userID, perr := pathutil.ParseID(r, "id")
		if perr != nil {
			respond.Err(w, perr)
			return
		}
		page, err = h.Svc.ListByCreator(ctx, userID, f, req)
	} else {
		page, err = h.Svc.List(ctx, f, req)
	}
	if err != nil {
		if respond.StatusOf(err) >= http.StatusInternalServerError {
			logger.Error("failed to list books", slog.Any("error", err), slog.String("sort", req.Sort.String()))
		}
		respond.Err(w, err)
		return
	}

	resp, err := pagination.NewResponse(toDTOs(page.Items), page.PageInfo, h.Codec)
	if err != nil {
		respond.Err(w, err)
		return
	}

	pagination.LogResponse(logger, "books", req, page.PageInfo, len(page.Items), time.Since(startTime))

	respond.JSON(w, http.StatusOK, resp)
}

// logger returns h.Logger scoped to the request, or the logger the Logging
// middleware stored in ctx.
func (h ListHandler) logger(ctx context.Context) *slog.Logger {
	if h.Logger != nil {
		return logging.WithRequestID(ctx, h.Logger)
	}
	return logging.FromContext(ctx)
}
