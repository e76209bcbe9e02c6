package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/gallery-feed/internal/testutil"
	"github.com/Sternrassler/gallery-feed/pkg/client"
	"github.com/Sternrassler/gallery-feed/pkg/gallery"
)

func newTestModel(t *testing.T, mock *testutil.MockGallery) (Model, *gallery.Feed) {
	t.Helper()
	c, err := client.New(client.DefaultConfig(mock.URL(), "gallery-ui-test/1.0"))
	require.NoError(t, err)

	logger := zerolog.Nop()
	feed, err := gallery.NewFeed(gallery.NewAPI(c), gallery.FeedOptions{Logger: &logger})
	require.NoError(t, err)

	m := New(Options{Context: context.Background(), Feed: feed})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), feed
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_RendersLoadedFeed(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(8)...)
	defer mock.Close()
	m, _ := newTestModel(t, mock)

	assert.Contains(t, m.View(), "Connecting...")

	// Init loads the first page; run the load command directly.
	m, _ = update(t, m, m.loadFirst()())

	view := m.View()
	assert.Contains(t, view, "Image 8")
	assert.Contains(t, view, "Image 3")
	assert.NotContains(t, view, "Image 2")
	assert.Contains(t, view, "more images available")
	assert.Len(t, m.items, 6)

	m, cmd := update(t, m, runes("m"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Len(t, m.items, 8)
	assert.Contains(t, m.View(), "Image 1")
	assert.NotContains(t, m.View(), "more images available")

	// No next page: "m" does nothing.
	_, cmd = update(t, m, runes("m"))
	assert.Nil(t, cmd)
}

func TestModel_Navigation(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(3)...)
	defer mock.Close()
	m, _ := newTestModel(t, mock)
	m, _ = update(t, m, m.loadFirst()())

	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	assert.Equal(t, 2, m.selected)

	m, _ = update(t, m, runes("k"))
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "https://images.example.com/img-2.png")
}

func TestModel_FeedStateMessage(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(2)...)
	defer mock.Close()
	m, feed := newTestModel(t, mock)

	require.NoError(t, feed.LoadFirst(context.Background()))
	m, _ = update(t, m, feedStateMsg(feed.State()))

	assert.Len(t, m.items, 2)
	assert.Contains(t, m.View(), "2 images")
}

func TestModel_UploadValidationStaysLocal(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()
	m, _ := newTestModel(t, mock)

	m, _ = update(t, m, runes("u"))
	require.True(t, m.uploading)
	assert.Contains(t, m.View(), "Add image")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.form.submitting)

	view := m.View()
	assert.Contains(t, view, "title is required")
	assert.Contains(t, view, "description is required")
	assert.Contains(t, view, "image url is required")
	assert.Zero(t, mock.GetCreateCount())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.uploading)
}

func TestModel_UploadSubmits(t *testing.T) {
	mock := testutil.NewMockGallery(testutil.SeedImages(2)...)
	defer mock.Close()
	m, feed := newTestModel(t, mock)
	m, _ = update(t, m, m.loadFirst()())

	m, _ = update(t, m, runes("u"))
	m.form.inputs[0].SetValue("Sunset")
	m.form.inputs[1].SetValue("Sunset over the bay")
	m.form.inputs[2].SetValue("https://images.example.com/sunset.png")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.form.submitting)
	assert.Contains(t, m.View(), "Sending...")

	m, cmd = update(t, m, cmd())
	assert.False(t, m.uploading)
	assert.True(t, strings.HasPrefix(m.notice, "Image added"))
	assert.Equal(t, 1, mock.GetCreateCount())
	assert.True(t, feed.Stale())

	require.NotNil(t, cmd, "a successful upload reloads the feed")
	m, _ = update(t, m, cmd())
	assert.Equal(t, "Sunset", m.items[0].Title)
}

func TestModel_UploadServerFailureKeepsForm(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()
	mock.SetResponse("POST", testutil.NewServerErrorResponse())
	m, _ := newTestModel(t, mock)

	m, _ = update(t, m, runes("u"))
	m.form.inputs[0].SetValue("Sunset")
	m.form.inputs[1].SetValue("Sunset over the bay")
	m.form.inputs[2].SetValue("https://images.example.com/sunset.png")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.uploading)
	assert.Equal(t, "Upload failed", m.notice)
	assert.Contains(t, m.View(), "status 500")
}

func TestModel_Quit(t *testing.T) {
	mock := testutil.NewMockGallery()
	defer mock.Close()
	m, _ := newTestModel(t, mock)

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
