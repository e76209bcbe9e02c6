//go:build integration

package httpcache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		container.Terminate(ctx)
	}

	return client, cleanup
}

func TestStore_Integration_PagesExpireAndPurge(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	store := NewStore(client)
	ctx := context.Background()
	first := Key{Collection: "api/images"}
	second := Key{Collection: "api/images", Cursor: "c1"}

	if err := store.Save(ctx, first, &Page{Body: []byte(`{"data":[]}`), ETag: `"v1"`}, 2*time.Second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, second, &Page{Body: []byte(`{"data":[]}`), ETag: `"v2"`}, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ttl, err := client.TTL(ctx, first.String()).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Errorf("Redis TTL = %v, want within (0, 2s]", ttl)
	}

	time.Sleep(3 * time.Second)

	if _, err := store.Lookup(ctx, first); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}

	// The expired page is still indexed; only the live one counts.
	n, err := store.Purge(ctx, "/api/images")
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Purge removed %d pages, want 1", n)
	}
	if _, err := store.Lookup(ctx, second); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after purge, got %v", err)
	}
}
