package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for document fetches.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dictcrawl_fetch_requests_total",
		Help: "Total document requests by host and status",
	}, []string{"host", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dictcrawl_fetch_duration_seconds",
		Help:    "Document request duration in seconds by host",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
	}, []string{"host"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dictcrawl_fetch_errors_total",
		Help: "Total document fetch errors by class",
	}, []string{"class"})
)
