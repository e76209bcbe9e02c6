// Package metrics exposes the Prometheus metrics of the gallery feed.
// Collectors are defined in the packages that update them (client,
// httpcache, cache, fetch, pagination, mutation) and register themselves
// with the default registry through promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every gallery collector uses.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source the /metrics handler serves.
var Gatherer = prometheus.DefaultGatherer

// BuildInfo is constant 1, labelled with the running version.
var BuildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "gallery_build_info",
		Help: "Build information of the running binary",
	},
	[]string{"version", "binary"},
)

// SetBuildInfo records the version of the running binary.
func SetBuildInfo(binary, version string) {
	BuildInfo.WithLabelValues(version, binary).Set(1)
}

// Handler serves all registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - gallery_requests_total{method, path, status} (Counter)
//   - gallery_request_duration_seconds{method, path} (Histogram)
//   - gallery_errors_total{class} (Counter): client, server, network
//
// Page Cache Metrics (pkg/httpcache):
//   - gallery_http_cache_hits_total, gallery_http_cache_misses_total (Counter)
//   - gallery_http_cache_pages_stored_total (Counter)
//   - gallery_http_cache_stored_bytes_total (Counter)
//   - gallery_http_cache_pages_purged_total (Counter): pages dropped after an upload
//   - gallery_http_304_responses_total (Counter)
//   - gallery_http_conditional_requests_total (Counter)
//   - gallery_http_cache_errors_total{operation} (Counter): lookup, save, touch, purge
//
// Query Cache Metrics (pkg/cache):
//   - gallery_query_cache_hits_total, gallery_query_cache_misses_total (Counter)
//   - gallery_query_cache_writes_total, gallery_query_cache_failures_total (Counter)
//   - gallery_query_cache_writes_dropped_total (Counter): out-of-order results
//   - gallery_query_cache_invalidations_total (Counter)
//   - gallery_query_cache_entries (Gauge)
//
// Fetch Metrics (pkg/fetch):
//   - gallery_fetch_loader_calls_total (Counter)
//   - gallery_fetch_shared_results_total (Counter)
//   - gallery_fetch_in_flight (Gauge)
//   - gallery_fetch_loader_duration_seconds{outcome} (Histogram)
//
// Pagination Metrics (pkg/pagination):
//   - gallery_pagination_pages_appended_total{feed} (Counter)
//   - gallery_pagination_duplicates_dropped_total{feed} (Counter)
//   - gallery_pagination_stale_results_discarded_total{feed} (Counter)
//   - gallery_pagination_transitions_total{feed, status} (Counter)
//
// Mutation Metrics (pkg/mutation):
//   - gallery_mutation_submissions_total{mutation, result} (Counter)
//   - gallery_mutation_invalidated_entries_total{mutation} (Counter)
//
// Example Prometheus Queries:
//
//   # De-duplication ratio
//   rate(gallery_fetch_shared_results_total[5m]) /
//   (rate(gallery_fetch_shared_results_total[5m]) + rate(gallery_fetch_loader_calls_total[5m]))
//
//   # Upload failure rate
//   sum(rate(gallery_mutation_submissions_total{result="failure"}[5m]))
//
//   # P95 page load latency
//   histogram_quantile(0.95, rate(gallery_fetch_loader_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(gallery_http_304_responses_total[5m]) / rate(gallery_requests_total{method="GET"}[5m])
