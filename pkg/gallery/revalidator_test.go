package gallery

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/gallery-feed/internal/testutil"
	"github.com/Sternrassler/gallery-feed/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevalidator_Revalidate(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(3)...)
	defer mock.Close()
	feed := newTestFeed(t, mock)
	r := NewRevalidator(feed, time.Hour)
	ctx := context.Background()

	// Idle feeds are left alone.
	reloaded, err := r.Revalidate(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded)

	require.NoError(t, feed.LoadFirst(ctx))

	// Fresh feeds are left alone.
	reloaded, err = r.Revalidate(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded)
	assert.Equal(t, 1, mock.GetListCount())

	mock.AddImage(testutil.MockImage{ID: "img-new", Title: "New", URL: "https://images.example.com/new.png"})
	feed.Cache().Invalidate(cache.HasRoot(FeedName))

	reloaded, err = r.Revalidate(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, "img-new", feed.Items()[0].ID)
	assert.False(t, feed.Stale())
}

func TestRevalidator_StartReloadsAfterUpload(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(3)...)
	defer mock.Close()
	feed := newTestFeed(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, feed.LoadFirst(ctx))

	// A long interval leaves the upload trigger as the only wake-up.
	NewRevalidator(feed, time.Hour).Start(ctx)

	img, err := feed.Submit(ctx, validImage())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		items := feed.Items()
		return len(items) > 0 && items[0].ID == img.ID && !feed.Stale()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRevalidator_DefaultInterval(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()

	r := NewRevalidator(newTestFeed(t, mock), 0)
	assert.Equal(t, DefaultRevalidateInterval, r.interval)
}
