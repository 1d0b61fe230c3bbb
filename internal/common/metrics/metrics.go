// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	FunnelToneDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_tone_detected_total",
			Help: "Prompts analyzed per detected tone of voice",
		},
		[]string{"tone"},
	)

	FunnelSectionsEnabled = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "funnel_sections_enabled",
			Help:    "Number of sections enabled per resolved funnel",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		},
	)

	FunnelCopyFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_copy_fallbacks_total",
			Help: "Copy generations that fell back to template copy",
		},
		[]string{"provider"},
	)

	FunnelCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_cache_requests_total",
			Help: "Profile and template cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// JobTracker records the lifecycle of one job.
type JobTracker struct {
	taskType string
	start    time.Time
}

// StartJob marks a job active until Done is called.
func StartJob(taskType string) *JobTracker {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTracker{taskType: taskType, start: time.Now()}
}

// Done records duration and outcome. An empty errorCode counts as completed.
func (j *JobTracker) Done(errorCode string) {
	WorkerJobsActive.WithLabelValues(j.taskType).Dec()
	WorkerJobDuration.WithLabelValues(j.taskType).Observe(time.Since(j.start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(j.taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(j.taskType, errorCode).Inc()
}

// Elapsed is the time since StartJob.
func (j *JobTracker) Elapsed() time.Duration {
	return time.Since(j.start)
}
