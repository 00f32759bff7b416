package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the retry executor and batch scheduler.
var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dictcrawl_attempts_total",
		Help: "Total adapter invocations by outcome",
	}, []string{"outcome"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dictcrawl_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"error_kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dictcrawl_retry_backoff_seconds",
		Help:    "Backoff duration before a retry by error kind",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"error_kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dictcrawl_retry_exhausted_total",
		Help: "Total number of entries whose retry budget ran out, by last error kind",
	}, []string{"error_kind"})

	entriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dictcrawl_entries_total",
		Help: "Total resolved entries by outcome (success, failed, aborted)",
	}, []string{"outcome"})

	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dictcrawl_batches_total",
		Help: "Total number of batches dispatched",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dictcrawl_batch_duration_seconds",
		Help:    "Wall time from batch dispatch to barrier",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	inflightEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dictcrawl_inflight_entries",
		Help: "Entries currently being attempted",
	})
)
