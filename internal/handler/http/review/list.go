package review

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/handler/http/pathutil"
	"bookshelf/internal/handler/http/respond"
	"bookshelf/internal/observability/logging"
	reviewUC "bookshelf/internal/usecase/review"
)

// ListHandler serves GET /books/{id}/reviews.
type ListHandler struct {
	Svc        *reviewUC.Service
	Pagination pagination.Config
	Codec      *pagination.CursorCodec
	Logger     *slog.Logger
}

// ServeHTTP lists a book's reviews with their authors populated. The page
// info carries pageCount.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	logger := requestLogger(ctx, h.Logger)

	bookID, err := pathutil.ParseID(r, "id")
	if err != nil {
		respond.Err(w, err)
		return
	}
	req, err := pagination.ParseQueryParams(r, h.Pagination, reviewUC.Sortable, h.Codec)
	if err != nil {
		pagination.LogRejected(ctx, logger, "reviews", err, "validation")
		respond.Err(w, err)
		return
	}
	f, err := filter.BuildReviewFilters(r.URL.Query())
	if err != nil {
		pagination.LogRejected(ctx, logger, "reviews", err, "filter")
		respond.Err(w, err)
		return
	}

	page, err := h.Svc.ListForBook(ctx, bookID, f, req)
	if err != nil {
		if respond.StatusOf(err) >= http.StatusInternalServerError {
			logger.Error("failed to list reviews", slog.Int64("book_id", bookID), slog.Any("error", err))
		}
		respond.Err(w, err)
		return
	}

	dtos := make([]DTO, 0, len(page.Items))
	for _, rv := range page.Items {
		dtos = append(dtos, toDTO(rv))
	}
	resp, err := pagination.NewResponse(dtos, page.PageInfo, h.Codec)
	if err != nil {
		respond.Err(w, err)
		return
	}

	pagination.LogResponse(logger.With(slog.Int64("book_id", bookID)), "reviews", req, page.PageInfo, len(dtos), time.Since(startTime))

	respond.JSON(w, http.StatusOK, resp)
}

// requestLogger scopes l to the request, falling back to the logger the
// Logging middleware stored in ctx.
func requestLogger(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l != nil {
		return logging.WithRequestID(ctx, l)
	}
	return logging.FromContext(ctx)
}
