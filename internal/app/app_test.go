package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/gallery-feed/internal/config"
	"github.com/Sternrassler/gallery-feed/internal/testutil"
	"github.com/Sternrassler/gallery-feed/pkg/cache"
	"github.com/Sternrassler/gallery-feed/pkg/gallery"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.Feed.RevalidateInterval = 10 * time.Millisecond
	return cfg
}

func TestNew_WithoutRedis(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(3)...)
	defer mock.Close()

	a, err := New(context.Background(), testConfig(mock.URL()), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)
	assert.NoError(t, a.Ready(context.Background()))

	require.NoError(t, a.Feed.LoadFirst(context.Background()))
	assert.Len(t, a.Feed.Items(), 3)
}

func TestNew_RedisUnreachable(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()

	cfg := testConfig(mock.URL())
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestStart_RevalidatesAfterInvalidation(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(3)...)
	defer mock.Close()

	a, err := New(context.Background(), testConfig(mock.URL()), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Feed.LoadFirst(ctx))
	a.Start(ctx)

	mock.AddImage(testutil.MockImage{ID: "img-new", Title: "New", URL: "https://images.example.com/new.png"})
	a.Feed.Cache().Invalidate(cache.HasRoot(gallery.FeedName))

	require.Eventually(t, func() bool {
		items := a.Feed.Items()
		return len(items) == 4 && items[0].ID == "img-new"
	}, 2*time.Second, 5*time.Millisecond)
}
