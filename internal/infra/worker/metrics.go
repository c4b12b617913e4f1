package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_worker_job_runs_total",
			Help: "Total number of scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_worker_job_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900},
		},
		[]string{"job"},
	)

	jobLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookshelf_worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job",
		},
		[]string{"job"},
	)
)

// RecordJobRun counts one run of job with status started, success or failure.
func RecordJobRun(job, status string) {
	jobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes how long a run of job took.
func RecordJobDuration(job string, d time.Duration) {
	jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// RecordLastSuccess stamps the last successful run of job.
func RecordLastSuccess(job string) {
	jobLastSuccess.WithLabelValues(job).SetToCurrentTime()
}
