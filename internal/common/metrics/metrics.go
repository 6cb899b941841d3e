// internal/common/metrics/metrics.go
package metrics

import (
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

	SwipesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_swipes_total",
			Help: "Total number of swipes processed by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_matches_created_total",
			Help: "Total number of mutual matches created by quality",
		},
		[]string{"quality"},
	)

	QuotaDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_denials_total",
			Help: "Total number of quota denials by resource and tier",
		},
		[]string{"resource", "tier"},
	)

	DiscoveryBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_discovery_batch_size",
			Help:    "Number of candidates returned per discovery call",
			Buckets: []float64{0, 1, 5, 10, 15, 20},
		},
	)

	MatchAlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_alerts_sent_total",
			Help: "Total number of match alerts sent by channel and status",
		},
		[]string{"channel", "status"},
	)
)
