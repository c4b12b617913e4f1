package http

import (
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/common/pagination"
	"bookshelf/internal/handler/http/auth"
	bookHTTP "bookshelf/internal/handler/http/book"
	"bookshelf/internal/handler/http/requestid"
	reviewHTTP "bookshelf/internal/handler/http/review"
	"bookshelf/internal/observability/tracing"
	bookUC "bookshelf/internal/usecase/book"
	reviewUC "bookshelf/internal/usecase/review"
)

// DefaultMaxBodyBytes bounds request bodies when RouterConfig leaves it zero.
const DefaultMaxBodyBytes = 1 << 20

// RouterConfig holds everything the API routes need.
type RouterConfig struct {
	Books      *bookUC.Service
	Reviews    *reviewUC.Service
	Pagination pagination.Config
	Codec      *pagination.CursorCodec
	Auth       *auth.Authenticator
	// WriteLimiter throttles mutations per client. Nil disables it.
	WriteLimiter   *RateLimiter
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Health         *HealthHandler
	Ready          *ReadyHandler
	Logger         *slog.Logger
}

// tracedMux names the server span of every routed request after its pattern.
type tracedMux struct{ *http.ServeMux }

func (m tracedMux) Handle(pattern string, h http.Handler) {
	m.ServeMux.Handle(pattern, tracing.Route(h))
}

// NewRouter builds the API handler: probes, /metrics and the book and review
// routes behind request id, tracing, logging, metrics and panic recovery.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	mux := tracedMux{http.NewServeMux()}

	health := cfg.Health
	if health == nil {
		health = &HealthHandler{}
	}
	ready := cfg.Ready
	if ready == nil {
		ready = &ReadyHandler{}
	}
	mux.Handle("GET /health", health)
	mux.Handle("GET /ready", ready)
	mux.Handle("GET /live", &LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	protect := func(h http.Handler) http.Handler {
		h = cfg.Auth.Require(h)
		if cfg.WriteLimiter != nil {
			h = cfg.WriteLimiter.Limit(h)
		}
		return LimitRequestBody(maxBody)(h)
	}

	bookHTTP.Register(mux, bookHTTP.Deps{
		Svc:        cfg.Books,
		Pagination: cfg.Pagination,
		Codec:      cfg.Codec,
		Logger:     logger,
	}, protect)
	reviewHTTP.Register(mux, reviewHTTP.Deps{
		Svc:        cfg.Reviews,
		Pagination: cfg.Pagination,
		Codec:      cfg.Codec,
		Logger:     logger,
	}, protect)

	var h http.Handler = mux.ServeMux
	if cfg.RequestTimeout > 0 {
		h = Deadline(cfg.RequestTimeout)(h)
	}
	h = Recover(logger)(h)
	h = MetricsMiddleware(h)
	h = Logging(logger)(h)
	h = tracing.Middleware(h)
	h = requestid.Middleware(h)
	return h
}
