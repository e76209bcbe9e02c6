package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks reads that found a stored value
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_query_cache_hits_total",
			Help: "Total number of query cache reads that found a value",
		},
	)

	// CacheMisses tracks reads for keys without a stored value
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_query_cache_misses_total",
			Help: "Total number of query cache reads without a value",
		},
	)

	// CacheWrites tracks successful results stored
	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_query_cache_writes_total",
			Help: "Total number of results written to the query cache",
		},
	)

	// CacheWritesDropped tracks results discarded because a later fetch
	// already settled
	CacheWritesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_query_cache_writes_dropped_total",
			Help: "Total number of out-of-order results dropped by the query cache",
		},
	)

	// CacheFailures tracks failed fetches recorded
	CacheFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_query_cache_failures_total",
			Help: "Total number of failed fetches recorded in the query cache",
		},
	)

	// CacheInvalidations tracks entries marked stale
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_query_cache_invalidations_total",
			Help: "Total number of query cache entries marked stale",
		},
	)

	// CacheEntries tracks the number of stored entries
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_query_cache_entries",
			Help: "Current number of query cache entries",
		},
	)
)
