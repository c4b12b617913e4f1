// Package auth resolves the caller's identity from an HS256 bearer token.
// Identity is the only concern here: which user may change what is decided
// by the use case layer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookshelf/internal/handler/http/respond"
)

type ctxKey string

const ctxUser ctxKey = "user"

var (
	// ErrMissingToken indicates that the Authorization header has no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken indicates a malformed, badly signed or expired token.
	ErrInvalidToken = errors.New("invalid token")
)

// Authenticator validates bearer tokens signed with Secret.
type Authenticator struct {
	Secret []byte
	Now    func() time.Time
}

// NewAuthenticator returns an Authenticator for the given HMAC secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{Secret: []byte(secret), Now: time.Now}
}

// Require rejects requests without a valid bearer token with 401 and stores
// the user ID from the "sub" claim in the request context otherwise.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		userID, err := a.authenticate(r.Header.Get("Authorization"))
		RecordAuthDuration(time.Since(start).Seconds())
		if err != nil {
			RecordAuthRequest(resultFor(err))
			respond.SafeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
			return
		}
		RecordAuthRequest("success")
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (a *Authenticator) authenticate(header string) (int64, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return 0, ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return 0, ErrMissingToken
	}
	return ParseToken(token, a.Secret, a.now())
}

func (a *Authenticator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// WithUserID stores the authenticated user ID in ctx.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxUser, id)
}

// UserID returns the authenticated user ID stored by Require.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxUser).(int64)
	return id, ok && id > 0
}

func resultFor(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return "missing"
	}
	return "invalid"
}
