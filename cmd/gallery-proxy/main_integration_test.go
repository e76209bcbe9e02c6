//go:build integration

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/gallery-feed/internal/app"
	"github.com/Sternrassler/gallery-feed/internal/config"
	"github.com/Sternrassler/gallery-feed/internal/testutil"
)

// startRedis runs a Redis container and returns its address.
func startRedis(t *testing.T) (string, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return host + ":" + port.Port(), func() { container.Terminate(ctx) }
}

func TestIntegration_ProxyWithResponseCache(t *testing.T) {
	addr, cleanup := startRedis(t)
	defer cleanup()

	mock := testutil.NewMockGallery(testutil.SeedImages(4)...)
	defer mock.Close()

	cfg := config.Default()
	cfg.API.BaseURL = mock.URL()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr

	ctx := context.Background()
	a, err := app.New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(newRouter(a.Feed, a.Ready, zerolog.Nop()))
	defer srv.Close()

	if status, _ := do(t, http.MethodGet, srv.URL+"/ready", ""); status != http.StatusOK {
		t.Fatalf("Expected ready, got %d", status)
	}

	if status, _ := do(t, http.MethodPost, srv.URL+"/feed/first", ""); status != http.StatusOK {
		t.Fatalf("First load failed with %d", status)
	}
	if status, _ := do(t, http.MethodPost, srv.URL+"/feed/refresh", ""); status != http.StatusOK {
		t.Fatalf("Refresh failed with %d", status)
	}

	if mock.GetConditionalCount() == 0 {
		t.Error("Expected refresh to revalidate through the response cache")
	}
	if v := decodeView(t, mustBody(t, srv.URL+"/feed")); len(v.Items) != 4 {
		t.Errorf("Expected 4 items after refresh, got %d", len(v.Items))
	}
}

func mustBody(t *testing.T, url string) []byte {
	t.Helper()
	_, body := do(t, http.MethodGet, url, "")
	return body
}
