package pagination

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Sternrassler/gallery-feed/pkg/cache"
	"github.com/Sternrassler/gallery-feed/pkg/fetch"
	"github.com/rs/zerolog"
)

// Config holds controller configuration.
type Config[T any] struct {
	// Name is the root part of every cache key the controller uses
	Name string

	// Fetch loads one page
	Fetch Fetcher[T]

	// ID returns the identity used to drop duplicate items
	ID func(T) string

	// Logger defaults to a no-op logger
	Logger *zerolog.Logger
}

// Controller is a cursor pagination state machine for one query name.
// It is safe for concurrent use.
type Controller[T any] struct {
	name   string
	fetch  Fetcher[T]
	id     func(T) string
	coord  *fetch.Coordinator
	logger zerolog.Logger

	mu        sync.Mutex
	state     State[T]
	observers map[int]func(State[T])
	nextObs   int
}

// NewController creates an idle controller that loads pages through coord.
func NewController[T any](coord *fetch.Coordinator, cfg Config[T]) (*Controller[T], error) {
	if coord == nil {
		return nil, fmt.Errorf("fetch coordinator is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if cfg.Fetch == nil {
		return nil, fmt.Errorf("fetch function is required")
	}
	if cfg.ID == nil {
		return nil, fmt.Errorf("id function is required")
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Controller[T]{
		name:      cfg.Name,
		fetch:     cfg.Fetch,
		id:        cfg.ID,
		coord:     coord,
		logger:    logger.With().Str("feed", cfg.Name).Logger(),
		observers: make(map[int]func(State[T])),
	}, nil
}

// Name returns the query name.
func (c *Controller[T]) Name() string {
	return c.name
}

// FirstKey returns the cache key of the first page.
func (c *Controller[T]) FirstKey() cache.Key {
	return cache.NewKey(c.name)
}

// NextKey returns the cache key of the page that starts at cursor.
func (c *Controller[T]) NextKey(cursor string) cache.Key {
	return cache.NewKey(c.name, cache.Params{"after": cursor})
}

// State returns a snapshot of the controller.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// HasNextPage reports whether another page can be loaded. known is false
// until a page has been loaded.
func (c *Controller[T]) HasNextPage() (has bool, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.HasNextPage()
}

// FlatItems returns every loaded item in page order. Only the first
// occurrence of an ID is kept.
func (c *Controller[T]) FlatItems() []T {
	c.mu.Lock()
	pages := c.state.clone().Pages
	c.mu.Unlock()

	seen := make(map[string]struct{})
	var items []T
	for _, p := range pages {
		for _, item := range p.Items {
			id := c.id(item)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

// Stale reports whether the first page must be fetched again: it was never
// loaded, was removed from the cache, or was invalidated.
func (c *Controller[T]) Stale() bool {
	entry, ok := c.coord.Cache().Read(c.FirstKey())
	return !ok || !entry.IsFresh()
}

// LoadFirst (re)loads the first page and replaces all pages with it.
//
// It is a no-op when the controller is Ready and the first page is still
// fresh. A result that settles after a newer LoadFirst started is discarded
// and nil is returned. When ctx ends first LoadFirst returns ctx.Err(), but
// the load still settles into the controller.
func (c *Controller[T]) LoadFirst(ctx context.Context) error {
	key := c.FirstKey()

	c.mu.Lock()
	switch c.state.Status {
	case StatusReady:
		if !c.Stale() {
			c.mu.Unlock()
			return nil
		}
	case StatusIdle, StatusError:
		if page, ok := c.cachedFirstPage(); ok {
			c.state.Generation++
			c.applyFirstLocked(page)
			snapshot := c.state.clone()
			c.mu.Unlock()

			c.logger.Debug().Int("items", len(page.Items)).Msg("Adopted cached first page")
			c.notify(snapshot)
			return nil
		}
	}

	c.state.Generation++
	gen := c.state.Generation
	c.state.Err = nil
	c.state.NextErr = nil
	c.state.IsFetchingNext = false
	c.setStatusLocked(StatusLoadingFirst)
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.logger.Debug().Uint64("generation", gen).Msg("Loading first page")
	c.notify(snapshot)

	settleCtx := context.WithoutCancel(ctx)
	return c.await(ctx, func() error {
		return c.settleFirst(settleCtx, gen, key)
	})
}

func (c *Controller[T]) settleFirst(ctx context.Context, gen uint64, key cache.Key) error {
	value, err := c.coord.Request(ctx, key, c.loader(""))

	c.mu.Lock()
	if gen != c.state.Generation {
		c.mu.Unlock()
		c.discard(gen)
		return nil
	}

	if err != nil {
		c.state.Err = err
		c.setStatusLocked(StatusError)
		snapshot := c.state.clone()
		c.mu.Unlock()

		c.logger.Warn().Err(err).Uint64("generation", gen).Msg("First page load failed")
		c.notify(snapshot)
		return err
	}

	page, ok := value.(Page[T])
	if !ok {
		err = fmt.Errorf("unexpected page type %T for %s", value, key)
		c.state.Err = err
		c.setStatusLocked(StatusError)
		snapshot := c.state.clone()
		c.mu.Unlock()

		c.notify(snapshot)
		return err
	}

	c.applyFirstLocked(page)
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.logger.Debug().
		Uint64("generation", gen).
		Int("items", len(page.Items)).
		Bool("has_next", page.HasNext()).
		Msg("First page loaded")
	c.notify(snapshot)
	return nil
}

// LoadNext loads the page after the last loaded one and appends it. It does
// nothing unless the controller is Ready, a next page exists and no next
// page is already loading. Like LoadFirst, the page is still appended when
// ctx ends before it arrives.
func (c *Controller[T]) LoadNext(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Status != StatusReady || c.state.IsFetchingNext || len(c.state.Pages) == 0 {
		c.mu.Unlock()
		return nil
	}
	cursor := c.state.Pages[len(c.state.Pages)-1].Cursor
	if cursor == "" {
		c.mu.Unlock()
		return nil
	}

	gen := c.state.Generation
	c.state.IsFetchingNext = true
	c.state.NextErr = nil
	c.setStatusLocked(StatusLoadingMore)
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.logger.Debug().Str("cursor", cursor).Msg("Loading next page")
	c.notify(snapshot)

	settleCtx := context.WithoutCancel(ctx)
	return c.await(ctx, func() error {
		return c.settleNext(settleCtx, gen, cursor)
	})
}

func (c *Controller[T]) settleNext(ctx context.Context, gen uint64, cursor string) error {
	key := c.NextKey(cursor)
	value, err := c.coord.Request(ctx, key, c.loader(cursor))

	c.mu.Lock()
	if gen != c.state.Generation {
		c.mu.Unlock()
		c.discard(gen)
		return nil
	}

	c.state.IsFetchingNext = false
	c.setStatusLocked(StatusReady)

	if err == nil {
		page, ok := value.(Page[T])
		if !ok {
			err = fmt.Errorf("unexpected page type %T for %s", value, key)
		} else {
			dropped := c.appendLocked(page)
			snapshot := c.state.clone()
			c.mu.Unlock()

			c.logger.Debug().
				Str("cursor", cursor).
				Int("items", len(page.Items)-dropped).
				Int("duplicates", dropped).
				Bool("has_next", page.HasNext()).
				Msg("Next page loaded")
			c.notify(snapshot)
			return nil
		}
	}

	c.state.NextErr = err
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.logger.Warn().Err(err).Str("cursor", cursor).Msg("Next page load failed")
	c.notify(snapshot)
	return err
}

// await runs settle in the background and waits for it until ctx ends.
// settle always runs to completion, so state never depends on which caller
// gave up.
func (c *Controller[T]) await(ctx context.Context, settle func() error) error {
	done := make(chan error, 1)
	go func() { done <- settle() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case err := <-done:
			return err
		default:
		}
		c.logger.Debug().Err(ctx.Err()).Msg("Caller stopped waiting, load continues")
		return ctx.Err()
	}
}

// cachedFirstPage returns the first page when the cache holds a fresh
// successful result for it.
func (c *Controller[T]) cachedFirstPage() (Page[T], bool) {
	entry, ok := c.coord.Cache().Read(c.FirstKey())
	if !ok || entry.Status != cache.StatusSuccess || !entry.IsFresh() {
		return Page[T]{}, false
	}
	page, ok := entry.Value.(Page[T])
	return page, ok
}

// Refresh invalidates every cached page of this query and reloads the first.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	n := c.coord.Cache().Invalidate(cache.HasRoot(c.name))
	c.logger.Debug().Int("entries", n).Msg("Feed invalidated for refresh")
	return c.LoadFirst(ctx)
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs outside the controller lock.
func (c *Controller[T]) Subscribe(fn func(State[T])) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller[T]) loader(cursor string) fetch.Loader {
	return func(ctx context.Context) (any, error) {
		page, err := c.fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		return page, nil
	}
}

func (c *Controller[T]) applyFirstLocked(page Page[T]) {
	first, dropped := c.dedupe(page, make(map[string]struct{}))
	c.state.Pages = []Page[T]{first}
	c.state.Err = nil
	c.state.NextErr = nil
	c.state.IsFetchingNext = false
	c.setStatusLocked(StatusReady)

	PagesAppended.WithLabelValues(c.name).Inc()
	if dropped > 0 {
		DuplicatesDropped.WithLabelValues(c.name).Add(float64(dropped))
	}
}

func (c *Controller[T]) appendLocked(page Page[T]) int {
	seen := make(map[string]struct{})
	for _, p := range c.state.Pages {
		for _, item := range p.Items {
			seen[c.id(item)] = struct{}{}
		}
	}

	next, dropped := c.dedupe(page, seen)
	pages := make([]Page[T], len(c.state.Pages), len(c.state.Pages)+1)
	copy(pages, c.state.Pages)
	c.state.Pages = append(pages, next)

	PagesAppended.WithLabelValues(c.name).Inc()
	if dropped > 0 {
		DuplicatesDropped.WithLabelValues(c.name).Add(float64(dropped))
	}
	return dropped
}

// dedupe returns page without items whose ID is in seen, adding the kept IDs
// to seen.
func (c *Controller[T]) dedupe(page Page[T], seen map[string]struct{}) (Page[T], int) {
	items := make([]T, 0, len(page.Items))
	dropped := 0
	for _, item := range page.Items {
		id := c.id(item)
		if _, ok := seen[id]; ok {
			dropped++
			continue
		}
		seen[id] = struct{}{}
		items = append(items, item)
	}
	return Page[T]{Items: items, Cursor: page.Cursor}, dropped
}

func (c *Controller[T]) setStatusLocked(s Status) {
	if c.state.Status == s {
		return
	}
	c.state.Status = s
	Transitions.WithLabelValues(c.name, s.String()).Inc()
}

func (c *Controller[T]) discard(gen uint64) {
	StaleResultsDiscarded.WithLabelValues(c.name).Inc()
	c.logger.Debug().
		Err(ErrStaleResultDiscarded).
		Uint64("generation", gen).
		Msg("Discarding superseded page result")
}

func (c *Controller[T]) notify(s State[T]) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State[T]), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.observers[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
