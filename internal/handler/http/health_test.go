package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(sqlmock.Sqlmock)
		cache          Pinger
		expectedStatus int
		wantDB         string
		wantCache      string
	}{
		{
			name:           "healthy database without cache",
			setupMock:      func(mock sqlmock.Sqlmock) { mock.ExpectPing() },
			expectedStatus: http.StatusOK,
			wantDB:         statusHealthy,
		},
		{
			name:           "database down",
			setupMock:      func(mock sqlmock.Sqlmock) { mock.ExpectPing().WillReturnError(sql.ErrConnDone) },
			expectedStatus: http.StatusServiceUnavailable,
			wantDB:         statusUnhealthy,
		},
		{
			name:           "cache down only degrades",
			setupMock:      func(mock sqlmock.Sqlmock) { mock.ExpectPing() },
			cache:          stubPinger{err: errors.New("dial tcp: connection refused")},
			expectedStatus: http.StatusOK,
			wantDB:         statusHealthy,
			wantCache:      statusDegraded,
		},
		{
			name:           "cache up",
			setupMock:      func(mock sqlmock.Sqlmock) { mock.ExpectPing() },
			cache:          stubPinger{},
			expectedStatus: http.StatusOK,
			wantDB:         statusHealthy,
			wantCache:      statusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			handler := &HealthHandler{DB: db, Cache: tt.cache, Version: "test-version"}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "test-version", resp.Version)
			assert.Equal(t, tt.wantDB, resp.Checks["database"].Status)
			if tt.wantCache != "" {
				assert.Equal(t, tt.wantCache, resp.Checks["cache"].Status)
			} else {
				assert.NotContains(t, resp.Checks, "cache")
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthHandler_NoDatabase(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthHandler_InMemory(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{InMemory: true}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "in-memory store")

	rec = httptest.NewRecorder()
	(&ReadyHandler{InMemory: true}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	(&ReadyHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	(&ReadyHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	rec = httptest.NewRecorder()
	(&ReadyHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sql:")
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&LiveHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
}
