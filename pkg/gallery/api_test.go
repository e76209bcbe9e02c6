package gallery

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Sternrassler/gallery-feed/internal/testutil"
	"github.com/Sternrassler/gallery-feed/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, mock *testutil.MockGallery) *API {
	t.Helper()
	c, err := client.New(client.DefaultConfig(mock.URL(), "gallery-feed-test/1.0"))
	require.NoError(t, err)
	return NewAPI(c)
}

func TestAPI_ListImages(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(8)...)
	defer mock.Close()
	api := newTestAPI(t, mock)
	ctx := context.Background()

	first, err := api.ListImages(ctx, "")
	require.NoError(t, err)
	require.Len(t, first.Items, testutil.DefaultPageSize)
	assert.Equal(t, "img-8", first.Items[0].ID)
	assert.Equal(t, "img-2", first.Cursor)
	assert.True(t, first.HasNext())
	assert.NotZero(t, first.Items[0].CreatedAt)

	last, err := api.ListImages(ctx, first.Cursor)
	require.NoError(t, err)
	require.Len(t, last.Items, 2)
	assert.Equal(t, "img-1", last.Items[1].ID)
	assert.Empty(t, last.Cursor)
	assert.False(t, last.HasNext())
}

func TestAPI_ListImagesEmptyGallery(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()

	page, err := newTestAPI(t, mock).ListImages(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNext())
}

func TestAPI_ListImagesServerError(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(3)...)
	defer mock.Close()
	mock.SetResponse(http.MethodGet, testutil.NewServerErrorResponse())

	_, err := newTestAPI(t, mock).ListImages(context.Background(), "")
	require.Error(t, err)

	var srvErr *client.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusInternalServerError, srvErr.StatusCode)
	assert.Equal(t, client.ErrorClassServer, srvErr.ErrorClass)
}

func TestAPI_ListImagesMalformedBody(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()
	mock.SetResponse(http.MethodGet, testutil.MockResponse{StatusCode: http.StatusOK, Body: "{not json"})

	_, err := newTestAPI(t, mock).ListImages(context.Background(), "")
	assert.Error(t, err)
}

func TestAPI_CreateImage(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(2)...)
	defer mock.Close()

	img, err := newTestAPI(t, mock).CreateImage(context.Background(), validImage())
	require.NoError(t, err)
	assert.NotEmpty(t, img.ID)
	assert.Equal(t, "Sunset", img.Title)
	assert.Equal(t, "https://images.example.com/sunset.png", img.URL)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(mock.GetLastCreateBody(), &sent))
	assert.Equal(t, map[string]string{
		"title":       "Sunset",
		"description": "Sunset over the bay",
		"url":         "https://images.example.com/sunset.png",
	}, sent)

	assert.Equal(t, img.ID, mock.Images()[0].ID)
}

func TestAPI_CreateImageRejected(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()

	_, err := newTestAPI(t, mock).CreateImage(context.Background(), NewImage{Title: "x"})
	require.Error(t, err)

	var srvErr *client.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusUnprocessableEntity, srvErr.StatusCode)
	assert.Equal(t, client.ErrorClassClient, srvErr.ErrorClass)
}
