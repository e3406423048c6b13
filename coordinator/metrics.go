package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCommitted = "committed"
	outcomeFailed    = "failed"
	outcomeAborted   = "aborted"
)

var (
	runsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockminer",
		Name:      "runs_total",
		Help:      "Number of mining runs by outcome",
	}, []string{"outcome"})

	raceDurationMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "blockminer",
		Name:      "race_duration_seconds",
		Help:      "Time from the first spawn until the winner was known",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
	})

	workerFailuresMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockminer",
		Name:      "worker_failures_total",
		Help:      "Number of workers that exited with an error before a winner was known",
	})
)
