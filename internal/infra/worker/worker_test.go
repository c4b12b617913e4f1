package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler("UTC", discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestNewScheduler_InvalidTimezone(t *testing.T) {
	_, err := NewScheduler("Nowhere/Land", discard())
	assert.ErrorContains(t, err, "Nowhere/Land")
}

func TestScheduler_Add(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	assert.NoError(t, s.Add("*/5 * * * *", Job{Name: "ok", Run: noop}))
	assert.Error(t, s.Add("not a schedule", Job{Name: "bad", Run: noop}))
	assert.Error(t, s.Add("* * * * *", Job{Name: "empty"}))
}

func TestScheduler_RunNow(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		job        string
		run        func(ctx context.Context) error
		timeout    time.Duration
		wantErr    error
		wantStatus string
	}{
		{
			name:       "success",
			job:        "test-success",
			run:        func(context.Context) error { return nil },
			wantStatus: "success",
		},
		{
			name:       "failure",
			job:        "test-failure",
			run:        func(context.Context) error { return boom },
			wantErr:    boom,
			wantStatus: "failure",
		},
		{
			name: "timeout",
			job:  "test-timeout",
			run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			timeout:    10 * time.Millisecond,
			wantErr:    context.DeadlineExceeded,
			wantStatus: "failure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScheduler(t)
			err := s.RunNow(context.Background(), Job{Name: tt.job, Timeout: tt.timeout, Run: tt.run})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(jobRunsTotal.WithLabelValues(tt.job, "started")))
			assert.Equal(t, 1.0, testutil.ToFloat64(jobRunsTotal.WithLabelValues(tt.job, tt.wantStatus)))
			assert.Equal(t, uint64(1), durationSamples(t, tt.job))
		})
	}
}

func durationSamples(t *testing.T, job string) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, jobDuration.WithLabelValues(job).(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestScheduler_RunNow_LastSuccess(t *testing.T) {
	s := newScheduler(t)
	require.NoError(t, s.RunNow(context.Background(), Job{Name: "test-stamp", Run: func(context.Context) error { return nil }}))
	assert.Greater(t, testutil.ToFloat64(jobLastSuccess.WithLabelValues("test-stamp")), 0.0)
}

func TestScheduler_StopCancelsContext(t *testing.T) {
	s, err := NewScheduler("UTC", discard())
	require.NoError(t, err)
	s.Start()

	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.ctx.Err(), context.Canceled)
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Info("skip", "entry", 1)
	l.Error(errors.New("panic"), "recovered", "entry", 2)

	out := buf.String()
	assert.Contains(t, out, "cron: skip")
	assert.Contains(t, out, "cron: recovered")
	assert.Contains(t, out, "error=panic")
}

func TestHealthServer(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	h := NewHealthServer(":0", discard())
	h.DB = db
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	get := func(path string) int {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/health"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready"), "not ready before SetReady")

	h.SetReady(true)
	mock.ExpectPing()
	assert.Equal(t, http.StatusOK, get("/health/ready"))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready"))

	assert.Equal(t, http.StatusOK, get("/metrics"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthServer_StartStops(t *testing.T) {
	h := NewHealthServer("127.0.0.1:0", discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
