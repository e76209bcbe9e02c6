package httpcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates no page is stored under the key
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored page could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// indexTTL bounds how long a collection index outlives its last save.
const indexTTL = 24 * time.Hour

// Store keeps gallery list pages in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a page store backed by Redis.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{redis: redisClient}
}

// Lookup returns the page stored under key, or ErrCacheMiss.
func (s *Store) Lookup(ctx context.Context, key Key) (*Page, error) {
	fields, err := s.redis.HGetAll(ctx, key.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	page, err := pageFromFields(fields)
	if err != nil {
		CacheErrors.WithLabelValues("lookup").Inc()
		_ = s.redis.Del(ctx, key.String()).Err()
		return nil, err
	}

	CacheHits.Inc()
	return page, nil
}

// Save stores page under key for ttl and records it in the collection
// index. A non-positive ttl stores nothing.
func (s *Store) Save(ctx context.Context, key Key, page *Page, ttl time.Duration) error {
	if page == nil {
		return fmt.Errorf("page cannot be nil")
	}
	if ttl <= 0 {
		return nil
	}

	k := key.String()
	idx := indexKey(key.Collection)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, page.fields())
		pipe.Expire(ctx, k, ttl)
		pipe.SAdd(ctx, idx, k)
		pipe.Expire(ctx, idx, indexTTL)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis save page: %w", err)
	}

	PagesStored.Inc()
	StoredBytes.Add(float64(len(page.Body)))
	return nil
}

// Touch extends the lifetime of a stored page, used when a 304 confirms it.
func (s *Store) Touch(ctx context.Context, key Key, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ok, err := s.redis.Expire(ctx, key.String(), ttl).Result()
	if err != nil {
		CacheErrors.WithLabelValues("touch").Inc()
		return fmt.Errorf("redis expire: %w", err)
	}
	if !ok {
		return ErrCacheMiss
	}
	return nil
}

// Purge removes every cached page of collection and returns how many were
// still stored.
func (s *Store) Purge(ctx context.Context, collection string) (int, error) {
	idx := indexKey(collection)
	members, err := s.redis.SMembers(ctx, idx).Result()
	if err != nil {
		CacheErrors.WithLabelValues("purge").Inc()
		return 0, fmt.Errorf("redis smembers: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	var removed *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, members...)
		pipe.Del(ctx, idx)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("purge").Inc()
		return 0, fmt.Errorf("redis purge: %w", err)
	}

	n := int(removed.Val())
	PagesPurged.Add(float64(n))
	return n, nil
}
