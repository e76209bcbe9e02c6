package mutation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Sternrassler/gallery-feed/pkg/cache"
	"github.com/rs/zerolog"
)

// Writer sends one payload to the server.
type Writer[P, R any] func(ctx context.Context, payload P) (R, error)

// Observer is notified about settled submissions. Either callback may be nil.
type Observer[P, R any] struct {
	OnSuccess func(payload P, result R)
	OnError   func(payload P, err error)
}

// Config holds coordinator configuration.
type Config[P, R any] struct {
	// Name labels logs and metrics
	Name string

	// Write performs the mutation
	Write Writer[P, R]

	// Validate rejects a payload before it is sent. Optional.
	Validate func(P) error

	// Invalidate selects the cache entries a successful write makes stale.
	// Nil invalidates every entry.
	Invalidate func(cache.Key) bool

	// Logger defaults to a no-op logger
	Logger *zerolog.Logger
}

// Coordinator runs writes and invalidates the query cache after success.
// Concurrent submissions are independent of each other.
type Coordinator[P, R any] struct {
	name       string
	write      Writer[P, R]
	validate   func(P) error
	invalidate func(cache.Key) bool
	cache      *cache.QueryCache
	logger     zerolog.Logger

	mu        sync.Mutex
	observers map[int]Observer[P, R]
	nextObs   int
}

// New creates a mutation coordinator that invalidates qc.
func New[P, R any](qc *cache.QueryCache, cfg Config[P, R]) (*Coordinator[P, R], error) {
	if qc == nil {
		return nil, fmt.Errorf("query cache is required")
	}
	if cfg.Write == nil {
		return nil, fmt.Errorf("write function is required")
	}
	if cfg.Name == "" {
		cfg.Name = "mutation"
	}
	if cfg.Invalidate == nil {
		cfg.Invalidate = func(cache.Key) bool { return true }
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Coordinator[P, R]{
		name:       cfg.Name,
		write:      cfg.Write,
		validate:   cfg.Validate,
		invalidate: cfg.Invalidate,
		cache:      qc,
		logger:     logger.With().Str("mutation", cfg.Name).Logger(),
		observers:  make(map[int]Observer[P, R]),
	}, nil
}

// Submit validates payload, writes it once and, on success, invalidates the
// configured cache entries before success observers run. On failure the
// cache is not touched and the error is returned.
func (c *Coordinator[P, R]) Submit(ctx context.Context, payload P) (R, error) {
	var zero R

	if c.validate != nil {
		if err := c.validate(payload); err != nil {
			ve := asValidationError(err)
			Submissions.WithLabelValues(c.name, "invalid").Inc()
			c.logger.Debug().Err(ve).Msg("Payload rejected before submit")
			c.notifyError(payload, ve)
			return zero, ve
		}
	}

	c.logger.Debug().Msg("Submitting mutation")

	result, err := c.write(ctx, payload)
	if err != nil {
		Submissions.WithLabelValues(c.name, "failure").Inc()
		c.logger.Warn().Err(err).Msg("Mutation failed")
		c.notifyError(payload, err)
		return zero, err
	}

	n := c.cache.Invalidate(c.invalidate)
	Submissions.WithLabelValues(c.name, "success").Inc()
	InvalidatedEntries.WithLabelValues(c.name).Add(float64(n))
	c.logger.Info().Int("invalidated", n).Msg("Mutation succeeded")

	for _, o := range c.snapshotObservers() {
		if o.OnSuccess != nil {
			o.OnSuccess(payload, result)
		}
	}
	return result, nil
}

// Subscribe registers o and returns a function that removes it.
func (c *Coordinator[P, R]) Subscribe(o Observer[P, R]) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator[P, R]) notifyError(payload P, err error) {
	for _, o := range c.snapshotObservers() {
		if o.OnError != nil {
			o.OnError(payload, err)
		}
	}
}

func (c *Coordinator[P, R]) snapshotObservers() []Observer[P, R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Observer[P, R], 0, len(ids))
	for _, id := range ids {
		out = append(out, c.observers[id])
	}
	return out
}
