// Package worker runs background jobs on a cron schedule and exposes the
// worker's health and metrics endpoints.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"bookshelf/internal/handler/http/respond"
)

// Job is one unit of scheduled work.
type Job struct {
	Name string
	// Timeout bounds a single run; zero means no deadline beyond Stop.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs Jobs on cron schedules. A tick that fires while the
// previous run of the same job is still in progress is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a Scheduler evaluating schedules in timezone.
func NewScheduler(timezone string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Add registers job on a standard five-field cron schedule.
func (s *Scheduler) Add(schedule string, job Job) error {
	if job.Run == nil {
		return fmt.Errorf("add job %s: nil Run", job.Name)
	}
	if _, err := s.cron.AddFunc(schedule, func() { _ = s.RunNow(s.ctx, job) }); err != nil {
		return fmt.Errorf("add job %s: %w", job.Name, err)
	}
	s.logger.Info("job scheduled", slog.String("job", job.Name), slog.String("schedule", schedule))
	return nil
}

// Start begins firing scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them to return
// or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// RunNow executes job once and synchronously, applying its timeout and
// recording metrics.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	start := time.Now()
	RecordJobRun(job.Name, "started")
	s.logger.Info("job started", slog.String("job", job.Name))

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	err := job.Run(ctx)
	elapsed := time.Since(start)
	RecordJobDuration(job.Name, elapsed)
	if err != nil {
		RecordJobRun(job.Name, "failure")
		s.logger.Error("job failed",
			slog.String("job", job.Name),
			slog.Duration("duration", elapsed),
			slog.String("error", respond.SanitizeError(err)))
		return err
	}
	RecordJobRun(job.Name, "success")
	RecordLastSuccess(job.Name)
	s.logger.Info("job completed", slog.String("job", job.Name), slog.Duration("duration", elapsed))
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
