package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("test-secret-key-with-at-least-32-bytes")
	testNow    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newTestAuthenticator() *Authenticator {
	return &Authenticator{Secret: testSecret, Now: func() time.Time { return testNow }}
}

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestRequire(t *testing.T) {
	valid, err := IssueToken(testSecret, 42, time.Hour, testNow)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, 42, time.Hour, testNow.Add(-2*time.Hour))
	require.NoError(t, err)
	otherSecret, err := IssueToken([]byte("another-secret"), 42, time.Hour, testNow)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   int64
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK, wantUser: 42},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: http.StatusOK, wantUser: 42},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + otherSecret, wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{
			name: "no exp",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, testSecret,
				jwt.RegisteredClaims{Subject: "42"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "non numeric sub",
			header: "Bearer " + signed(t, jwt.SigningMethodHS256, testSecret,
				jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "HS512 rejected",
			header: "Bearer " + signed(t, jwt.SigningMethodHS512, testSecret,
				jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	a := newTestAuthenticator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser int64
			h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/books", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Contains(t, body["error"], "unauthorized")
			}
		})
	}
}

func TestRequire_RecordsMetrics(t *testing.T) {
	before := testutil.ToFloat64(authRequestsTotal.WithLabelValues("missing"))

	h := newTestAuthenticator().Require(http.NotFoundHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/books/1", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(authRequestsTotal.WithLabelValues("missing")))
}

func TestUserID(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	id, ok := UserID(WithUserID(context.Background(), 7))
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = UserID(WithUserID(context.Background(), 0))
	assert.False(t, ok)
}

func TestParseToken_RoundTrip(t *testing.T) {
	tok, err := IssueToken(testSecret, 9, time.Minute, testNow)
	require.NoError(t, err)

	id, err := ParseToken(tok, testSecret, testNow.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	_, err = ParseToken(tok, testSecret, testNow.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
