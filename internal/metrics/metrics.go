package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal tracks lifecycle operations by operation and outcome
	// (success, fatal, exhausted).
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobctl_operations_total",
			Help: "Total number of lifecycle operations",
		},
		[]string{"operation", "outcome"},
	)

	// RetriesTotal tracks transient-failure retries by operation
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobctl_retries_total",
			Help: "Total number of transient-failure retries",
		},
		[]string{"operation"},
	)

	// OperationLatency tracks end-to-end operation latency including retries
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobctl_operation_latency_seconds",
			Help:    "Lifecycle operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// InstalledJobs tracks the number of jobs in the local ledger
	InstalledJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobctl_installed_jobs",
			Help: "Number of jobs recorded in the local ledger",
		},
	)

	// ReplayQueueDepth tracks parked failed operations awaiting replay
	ReplayQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobctl_replay_queue_depth",
			Help: "Number of failed operations parked for replay",
		},
	)
)
