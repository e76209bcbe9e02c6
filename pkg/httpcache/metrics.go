package httpcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks lookups that found a stored page
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_cache_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	// CacheMisses tracks lookups without a stored page
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// PagesStored tracks pages written to Redis
	PagesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_cache_pages_stored_total",
			Help: "Total number of pages stored in the page cache",
		},
	)

	// StoredBytes tracks page body bytes written to Redis
	StoredBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_cache_stored_bytes_total",
			Help: "Total page body bytes stored in the page cache",
		},
	)

	// PagesPurged tracks pages dropped after an upload
	PagesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_cache_pages_purged_total",
			Help: "Total number of cached pages purged",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent tracks requests sent with If-None-Match or If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_http_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "lookup", "save", "touch", "purge"
	)
)
