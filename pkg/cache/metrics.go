package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh documents served from Redis
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dictcrawl_cache_hits_total",
			Help: "Total number of fresh document cache hits",
		},
	)

	// CacheMisses tracks absent documents
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dictcrawl_cache_misses_total",
			Help: "Total number of document cache misses",
		},
	)

	// CacheStale tracks stale documents returned for revalidation
	CacheStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dictcrawl_cache_stale_total",
			Help: "Total number of stale documents returned for revalidation",
		},
	)

	// CacheStoredBytes tracks bytes written to Redis
	CacheStoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dictcrawl_cache_stored_bytes_total",
			Help: "Total bytes of documents written to the cache",
		},
	)

	// NotModified tracks 304 responses that refreshed a cached document
	NotModified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dictcrawl_cache_not_modified_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictcrawl_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
