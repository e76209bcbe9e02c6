// Package fetch de-duplicates concurrent loads of the same query and settles
// their results into the query cache.
//
// For any key at most one loader runs at a time; every concurrent caller
// shares its result or its failure. The in-flight call is forgotten before
// waiters are released, so a request made after settlement always starts a
// fresh load. Loads are never retried.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/gallery-feed/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	loaderCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_fetch_loader_calls_total",
		Help: "Total number of loader invocations",
	})

	sharedResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_fetch_shared_results_total",
		Help: "Total number of requests served by another caller's in-flight load",
	})

	inFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_fetch_in_flight",
		Help: "Number of loads currently in flight",
	})

	loaderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gallery_fetch_loader_duration_seconds",
		Help:    "Loader duration in seconds by outcome",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"outcome"})
)

// Loader performs the actual fetch for one key.
type Loader func(ctx context.Context) (any, error)

// Coordinator shares in-flight loads per key and writes results into a QueryCache.
type Coordinator struct {
	cache  *cache.QueryCache
	group  singleflight.Group
	logger zerolog.Logger

	mu       sync.Mutex
	inflight map[string]int
}

// NewCoordinator creates a coordinator that settles results into qc.
func NewCoordinator(qc *cache.QueryCache, logger zerolog.Logger) *Coordinator {
	if qc == nil {
		panic("query cache cannot be nil")
	}
	return &Coordinator{
		cache:    qc,
		logger:   logger,
		inflight: make(map[string]int),
	}
}

// Cache returns the query cache results are written to.
func (c *Coordinator) Cache() *cache.QueryCache {
	return c.cache
}

// Request returns the result of loader for key, joining a load already in
// flight for the same key instead of starting another one.
//
// The load runs detached from ctx cancellation so other waiters are not cut
// off; ctx only bounds how long this caller waits. A load that started before
// the key was last invalidated is not joined.
func (c *Coordinator) Request(ctx context.Context, key cache.Key, loader Loader) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}

	flightKey := c.flightKey(key)
	loadCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.load(loadCtx, key, flightKey, loader)
	})

	select {
	case res := <-ch:
		if res.Shared {
			sharedResults.Inc()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InFlight reports whether a load for key is currently running.
func (c *Coordinator) InFlight(key cache.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[key.String()] > 0
}

func (c *Coordinator) load(ctx context.Context, key cache.Key, flightKey string, loader Loader) (any, error) {
	version := c.cache.Version()
	c.cache.Begin(key)
	c.track(key, 1)

	loaderCalls.Inc()
	c.logger.Debug().Str("key", key.String()).Msg("Loading query")

	start := time.Now()
	value, err := loader(ctx)
	elapsed := time.Since(start)

	if err != nil {
		loaderDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		recorded := c.cache.FailAt(key, err, version)
		c.logger.Warn().Err(err).Str("key", key.String()).Dur("duration", elapsed).Bool("recorded", recorded).Msg("Query load failed")
	} else {
		loaderDuration.WithLabelValues("success").Observe(elapsed.Seconds())
		stored := c.cache.WriteAt(key, value, version)
		c.logger.Debug().Str("key", key.String()).Dur("duration", elapsed).Bool("stored", stored).Msg("Query loaded")
	}

	// Removed before any waiter sees the result.
	c.group.Forget(flightKey)
	c.track(key, -1)

	return value, err
}

func (c *Coordinator) track(key cache.Key, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	c.inflight[k] += delta
	if c.inflight[k] <= 0 {
		delete(c.inflight, k)
	}
	inFlightGauge.Add(float64(delta))
}

// flightKey scopes de-duplication to the key's invalidation epoch.
func (c *Coordinator) flightKey(key cache.Key) string {
	return fmt.Sprintf("%s#%d", key.String(), c.cache.InvalidatedVersion(key))
}
