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

	CoverageEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverage_evaluations_total",
			Help: "Coverage evaluations by resulting status",
		},
		[]string{"status"},
	)

	CoverageMissingPositions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverage_missing_positions_total",
			Help: "Unfilled positions found by coverage evaluations, per seniority",
		},
		[]string{"seniority"},
	)

	StaffingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staffing_cache_lookups_total",
			Help: "Project staffing cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// ObserveJob records the outcome of one job. An empty errorCode counts as success.
func ObserveJob(taskType string, start time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	if errorCode != "" {
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
		return
	}
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
}
