package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// QueryCache stores the latest known result per query key.
// It is safe for concurrent use. Observers run outside the lock, in
// subscription order, after every entry change.
type QueryCache struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	version   uint64
	observers map[int]func(Entry)
	nextObs   int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewQueryCache creates an empty query cache.
func NewQueryCache(logger zerolog.Logger) *QueryCache {
	return &QueryCache{
		entries:   make(map[string]*Entry),
		observers: make(map[int]func(Entry)),
		now:       time.Now,
		logger:    logger,
	}
}

// Read returns a copy of the entry for key. The boolean is false if the key
// was never fetched; that is a normal outcome, not an error.
func (c *QueryCache) Read(key Key) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key.String()]
	var snapshot Entry
	if ok {
		snapshot = *e
	}
	c.mu.RUnlock()

	if ok && snapshot.hasValue {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}

	return snapshot, ok
}

// Begin marks key as Loading, creating the entry on first fetch.
func (c *QueryCache) Begin(key Key) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.Status = StatusLoading
	snapshot := *e
	c.mu.Unlock()

	c.logger.Debug().Str("key", key.String()).Msg("Query loading")
	c.notify(snapshot)
}

// Write stores a successful result and clears the stale flag.
func (c *QueryCache) Write(key Key, value any) {
	c.mu.Lock()
	snapshot, _ := c.writeLocked(key, value, c.version)
	c.mu.Unlock()

	c.notify(snapshot)
}

// WriteAt stores a result fetched while the cache was at version. If the key
// was invalidated after that version the value is stored but stays stale.
// A result older than the one already stored is dropped; WriteAt reports
// whether the value was stored.
func (c *QueryCache) WriteAt(key Key, value any, version uint64) bool {
	c.mu.Lock()
	snapshot, stored := c.writeLocked(key, value, version)
	c.mu.Unlock()

	if stored {
		c.notify(snapshot)
	}
	return stored
}

// Fail records a failed fetch. The previous value remains readable.
func (c *QueryCache) Fail(key Key, err error) {
	c.mu.Lock()
	snapshot, _ := c.failLocked(key, err, c.version)
	c.mu.Unlock()

	c.notify(snapshot)
}

// FailAt records the failure of a fetch started at version. It is ignored
// when a result fetched later is already stored, and reports whether the
// failure was recorded.
func (c *QueryCache) FailAt(key Key, err error, version uint64) bool {
	c.mu.Lock()
	snapshot, recorded := c.failLocked(key, err, version)
	c.mu.Unlock()

	if recorded {
		c.notify(snapshot)
	}
	return recorded
}

// Invalidate marks every entry matching the predicate as stale and returns
// how many were marked. It does not fetch.
func (c *QueryCache) Invalidate(match func(Key) bool) int {
	c.mu.Lock()
	c.version++
	var changed []Entry
	for _, e := range c.entries {
		if !match(e.Key) {
			continue
		}
		e.Stale = true
		e.invalidatedAt = c.version
		changed = append(changed, *e)
	}
	version := c.version
	c.mu.Unlock()

	CacheInvalidations.Add(float64(len(changed)))
	c.logger.Debug().
		Int("entries", len(changed)).
		Uint64("version", version).
		Msg("Queries invalidated")

	sort.Slice(changed, func(i, j int) bool {
		return changed[i].Key.String() < changed[j].Key.String()
	})
	for _, e := range changed {
		c.notify(e)
	}
	return len(changed)
}

// Version returns the current invalidation epoch.
func (c *QueryCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// InvalidatedVersion returns the epoch of the last invalidation that matched
// key, or 0 if it was never invalidated.
func (c *QueryCache) InvalidatedVersion(key Key) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key.String()]; ok {
		return e.invalidatedAt
	}
	return 0
}

// Subscribe registers fn for every entry change and returns a function that
// removes it.
func (c *QueryCache) Subscribe(fn func(Entry)) func() {
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

// Keys returns the stored keys in canonical order.
func (c *QueryCache) Keys() []Key {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.Key)
	}
	c.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Len returns the number of stored entries.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()

	CacheEntries.Sub(float64(n))
	c.logger.Debug().Int("entries", n).Msg("Query cache cleared")
}

func (c *QueryCache) entryLocked(key Key) *Entry {
	e, ok := c.entries[key.String()]
	if !ok {
		e = &Entry{Key: key, Status: StatusIdle}
		c.entries[key.String()] = e
		CacheEntries.Inc()
	}
	return e
}

func (c *QueryCache) writeLocked(key Key, value any, version uint64) (Entry, bool) {
	e := c.entryLocked(key)
	if c.supersededLocked(e, version) {
		return *e, false
	}

	e.Status = StatusSuccess
	e.Value = value
	e.Err = nil
	e.FetchedAt = c.now()
	e.hasValue = true
	e.settledAt = version
	e.Stale = e.invalidatedAt > version

	CacheWrites.Inc()
	if e.Stale {
		c.logger.Debug().
			Str("key", key.String()).
			Uint64("fetch_version", version).
			Uint64("invalidated_at", e.invalidatedAt).
			Msg("Result predates invalidation, entry stays stale")
	}
	return *e, true
}

func (c *QueryCache) failLocked(key Key, err error, version uint64) (Entry, bool) {
	e := c.entryLocked(key)
	if c.supersededLocked(e, version) {
		return *e, false
	}

	e.Status = StatusError
	e.Err = err

	CacheFailures.Inc()
	c.logger.Debug().Err(err).Str("key", key.String()).Msg("Query failed")
	return *e, true
}

// supersededLocked reports whether a fetch started at version settles after
// a result from a later fetch was stored.
func (c *QueryCache) supersededLocked(e *Entry, version uint64) bool {
	if !e.hasValue || version >= e.settledAt {
		return false
	}
	CacheWritesDropped.Inc()
	c.logger.Debug().
		Str("key", e.Key.String()).
		Uint64("fetch_version", version).
		Uint64("settled_at", e.settledAt).
		Msg("Dropping result older than the stored one")
	return true
}

func (c *QueryCache) notify(e Entry) {
	c.mu.RLock()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Entry), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.observers[id])
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
