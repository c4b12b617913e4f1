package pagination

import (
	"context"
	"log/slog"
	"time"
)

func cursorID(c *Cursor) any {
	if c == nil {
		return nil
	}
	return c.ID
}

// LogResponse logs a served page at debug level. The logger is expected to
// carry the request ID already.
func LogResponse(logger *slog.Logger, resource string, req Request, info PageInfo, returned int, duration time.Duration) {
	logger.Debug("page served",
		slog.String("resource", resource),
		slog.String("sort", req.Sort.String()),
		slog.Int("limit", req.Limit),
		slog.Any("after_id", cursorID(req.After)),
		slog.Any("before_id", cursorID(req.Before)),
		slog.Int("returned_count", returned),
		slog.Bool("has_next_page", info.HasNextPage),
		slog.Bool("has_prev_page", info.HasPrevPage),
		slog.Int64("duration_ms", duration.Milliseconds()))
}

// LogRejected logs a request refused before reaching storage and counts it
// under reason.
func LogRejected(ctx context.Context, logger *slog.Logger, resource string, err error, reason string) {
	RecordError(reason)
	logger.WarnContext(ctx, "pagination request rejected",
		slog.String("resource", resource),
		slog.String("reason", reason),
		slog.Any("error", err))
}
