package httpcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when none is running.
// The integration build uses testcontainers instead.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil redis client")
		}
	}()
	NewStore(nil)
}

func TestStore_SaveAndLookup(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()
	key := Key{Collection: "api/images", Cursor: "c1"}

	page := &Page{
		Body:        []byte(`{"data":[],"after":null}`),
		ETag:        `"abc123"`,
		ContentType: "application/json",
		StoredAt:    time.Now(),
	}
	if err := store.Save(ctx, key, page, 5*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if string(got.Body) != string(page.Body) {
		t.Errorf("Body = %s, want %s", got.Body, page.Body)
	}
	if got.ETag != page.ETag {
		t.Errorf("ETag = %s, want %s", got.ETag, page.ETag)
	}
	if !got.Revalidatable() {
		t.Error("stored page should be revalidatable")
	}
}

func TestStore_Lookup_CacheMiss(t *testing.T) {
	store := NewStore(setupTestRedis(t))

	_, err := store.Lookup(context.Background(), Key{Collection: "api/images", Cursor: "missing"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestStore_Save_NonPositiveTTLSkipped(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()
	key := Key{Collection: "api/images"}

	if err := store.Save(ctx, key, &Page{Body: []byte("{}")}, 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Lookup(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("page with zero ttl should not be stored, got %v", err)
	}
}

func TestStore_Save_NilPage(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	if err := store.Save(context.Background(), Key{Collection: "api/images"}, nil, time.Minute); err == nil {
		t.Error("Expected error for nil page")
	}
}

func TestStore_Touch(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)
	ctx := context.Background()
	key := Key{Collection: "api/images"}

	if err := store.Touch(ctx, key, time.Minute); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Touch on missing page = %v, want ErrCacheMiss", err)
	}

	if err := store.Save(ctx, key, &Page{Body: []byte("{}"), ETag: `"v1"`}, 10*time.Second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Touch(ctx, key, 10*time.Minute); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	ttl, err := client.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 5*time.Minute {
		t.Errorf("TTL after Touch = %v, want about 10m", ttl)
	}
}

func TestStore_Purge(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	pages := []Key{
		{Collection: "api/images"},
		{Collection: "api/images", Cursor: "c1"},
		{Collection: "api/images", Cursor: "c2"},
	}
	for _, k := range pages {
		if err := store.Save(ctx, k, &Page{Body: []byte("{}"), ETag: `"v"`}, time.Minute); err != nil {
			t.Fatalf("Save(%s) failed: %v", k, err)
		}
	}
	other := Key{Collection: "api/albums"}
	if err := store.Save(ctx, other, &Page{Body: []byte("{}")}, time.Minute); err != nil {
		t.Fatalf("Save(other) failed: %v", err)
	}

	n, err := store.Purge(ctx, "/api/images")
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != len(pages) {
		t.Errorf("Purge removed %d pages, want %d", n, len(pages))
	}
	for _, k := range pages {
		if _, err := store.Lookup(ctx, k); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("page %s survived purge: %v", k, err)
		}
	}
	if _, err := store.Lookup(ctx, other); err != nil {
		t.Errorf("other collection should be untouched: %v", err)
	}

	if n, err := store.Purge(ctx, "/api/images"); err != nil || n != 0 {
		t.Errorf("second Purge = (%d, %v), want (0, nil)", n, err)
	}
}
