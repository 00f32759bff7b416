// Package metrics exposes the Prometheus registry the crawler's collectors
// live in. Every collector is defined next to the code that updates it
// (harvest, fetch, cache) and registered via promauto, so importing those
// packages is enough to make them appear in Handler's output.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer promauto uses for all crawler collectors.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the gathered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Engine Metrics (pkg/harvest):
//   - dictcrawl_attempts_total{outcome} (Counter): Adapter invocations by outcome (success, failure)
//   - dictcrawl_retries_total{error_kind} (Counter): Retries scheduled by the kind of the failed attempt
//   - dictcrawl_retry_backoff_seconds{error_kind} (Histogram): Wait before each retry
//   - dictcrawl_retry_exhausted_total{error_kind} (Counter): Entries routed to the error log
//   - dictcrawl_entries_total{outcome} (Counter): Resolved entries (success, failed, aborted)
//   - dictcrawl_batches_total (Counter): Batches dispatched
//   - dictcrawl_batch_duration_seconds (Histogram): Dispatch to barrier per batch
//   - dictcrawl_inflight_entries (Gauge): Entries currently being attempted
//
// Fetch Metrics (pkg/fetch):
//   - dictcrawl_fetch_requests_total{host, status} (Counter): Requests by host and HTTP status
//   - dictcrawl_fetch_duration_seconds{host} (Histogram): Request duration by host
//   - dictcrawl_fetch_errors_total{class} (Counter): Failed requests by class (client, server, network)
//
// Cache Metrics (pkg/cache):
//   - dictcrawl_cache_hits_total (Counter): Fresh documents served from Redis
//   - dictcrawl_cache_stale_total (Counter): Expired documents found and revalidated
//   - dictcrawl_cache_misses_total (Counter): Lookups with no stored document
//   - dictcrawl_cache_stored_bytes_total (Counter): Body bytes written to Redis
//   - dictcrawl_cache_not_modified_total (Counter): 304 responses that refreshed a document
//   - dictcrawl_cache_errors_total{operation} (Counter): Redis failures by operation
//
// Example Prometheus Queries:
//
//   # Entry failure ratio
//   sum(rate(dictcrawl_entries_total{outcome="failed"}[5m])) /
//   sum(rate(dictcrawl_entries_total[5m]))
//
//   # Cache hit rate
//   sum(rate(dictcrawl_cache_hits_total[5m])) /
//   (sum(rate(dictcrawl_cache_hits_total[5m])) + sum(rate(dictcrawl_cache_misses_total[5m])))
//
//   # P95 fetch latency per host
//   histogram_quantile(0.95, sum by (le, host) (rate(dictcrawl_fetch_duration_seconds_bucket[5m])))
