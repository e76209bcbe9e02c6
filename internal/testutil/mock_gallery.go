// Package testutil provides testing utilities for the gallery feed client.
package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DefaultPageSize is the number of images the mock returns per page.
const DefaultPageSize = 6

// MockImage is the wire shape of an image served by MockGallery.
type MockImage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	TS          int64  `json:"ts"`
}

// MockResponse defines a canned response for an endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGallery is a configurable in-memory gallery API for tests.
// Images are served newest first; the cursor is the ID of the first image of
// the next page.
type MockGallery struct {
	server    *httptest.Server
	mu        sync.RWMutex
	images    []MockImage
	pageSize  int
	overrides map[string]http.HandlerFunc
	gate      chan struct{}
	release   func()

	// Tracking
	RequestCount      int
	ListCount         int
	CreateCount       int
	ConditionalCount  int
	LastRequestHeader http.Header
	LastCreateBody    []byte
}

// NewMockGallery creates a mock gallery server seeded with images (newest first).
func NewMockGallery(images ...MockImage) *MockGallery {
	m := &MockGallery{
		images:    append([]MockImage(nil), images...),
		pageSize:  DefaultPageSize,
		overrides: make(map[string]http.HandlerFunc),
	}

	r := chi.NewRouter()
	r.Use(m.track)
	r.Get("/api/images", m.route(http.MethodGet, m.listImages))
	r.Post("/api/images", m.route(http.MethodPost, m.createImage))

	m.server = httptest.NewServer(r)
	return m
}

// SeedImages builds n images with deterministic IDs img-1..img-n, newest first.
func SeedImages(n int) []MockImage {
	images := make([]MockImage, 0, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := n; i >= 1; i-- {
		id := "img-" + strconv.Itoa(i)
		images = append(images, MockImage{
			ID:          id,
			Title:       "Image " + strconv.Itoa(i),
			Description: "Seeded image " + strconv.Itoa(i),
			URL:         "https://images.example.com/" + id + ".png",
			TS:          base + int64(i),
		})
	}
	return images
}

// URL returns the mock server URL.
func (m *MockGallery) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGallery) Close() {
	m.mu.RLock()
	release := m.release
	m.mu.RUnlock()
	if release != nil {
		release()
	}
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGallery) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ListCount = 0
	m.CreateCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastCreateBody = nil
}

// SetPageSize changes the number of images per page.
func (m *MockGallery) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetResponse replaces the handler for method on /api/images with a canned response.
func (m *MockGallery) SetResponse(method string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[method] = func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}
}

// ClearResponse restores the default handler for method.
func (m *MockGallery) ClearResponse(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, method)
}

// HoldLists makes list requests block until the returned release func is called.
func (m *MockGallery) HoldLists() (release func()) {
	gate := make(chan struct{})

	var once sync.Once
	release = func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gate == gate {
				m.gate = nil
				m.release = nil
			}
			m.mu.Unlock()
			close(gate)
		})
	}

	m.mu.Lock()
	m.gate = gate
	m.release = release
	m.mu.Unlock()

	return release
}

// AddImage inserts an image at the top of the feed, as if another client uploaded it.
func (m *MockGallery) AddImage(img MockImage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append([]MockImage{img}, m.images...)
}

// Images returns a copy of the stored images, newest first.
func (m *MockGallery) Images() []MockImage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockImage(nil), m.images...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGallery) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetListCount returns the number of list requests.
func (m *MockGallery) GetListCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ListCount
}

// GetCreateCount returns the number of create requests.
func (m *MockGallery) GetCreateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CreateCount
}

// GetLastCreateBody returns the payload of the last accepted create request.
func (m *MockGallery) GetLastCreateBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.LastCreateBody...)
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockGallery) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

func (m *MockGallery) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.RequestCount++
		m.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			m.ConditionalCount++
		}
		switch r.Method {
		case http.MethodGet:
			m.ListCount++
		case http.MethodPost:
			m.CreateCount++
		}
		m.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (m *MockGallery) route(method string, fallback http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		override, ok := m.overrides[method]
		m.mu.RUnlock()

		if ok {
			override(w, r)
			return
		}
		fallback(w, r)
	}
}

func (m *MockGallery) listImages(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	gate := m.gate
	m.mu.RUnlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	after := r.URL.Query().Get("after")

	m.mu.RLock()
	start := 0
	if after != "" {
		start = -1
		for i, img := range m.images {
			if img.ID == after {
				start = i
				break
			}
		}
	}
	if start < 0 {
		m.mu.RUnlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown cursor"})
		return
	}

	end := start + m.pageSize
	if end > len(m.images) {
		end = len(m.images)
	}
	page := append([]MockImage{}, m.images[start:end]...)

	var next *string
	if end < len(m.images) {
		cursor := m.images[end].ID
		next = &cursor
	}
	m.mu.RUnlock()

	body, _ := json.Marshal(struct {
		Data  []MockImage `json:"data"`
		After *string     `json:"after"`
	}{Data: page, After: next})

	sum := sha1.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockGallery) createImage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.URL) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "title and url are required"})
		return
	}

	img := MockImage{
		ID:          uuid.NewString(),
		Title:       payload.Title,
		Description: payload.Description,
		URL:         payload.URL,
		TS:          time.Now().UnixMilli(),
	}

	raw, _ := json.Marshal(payload)
	m.mu.Lock()
	m.images = append([]MockImage{img}, m.images...)
	m.LastCreateBody = raw
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]MockImage{"image": img})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewBadRequestResponse creates a 400 Bad Request response.
func NewBadRequestResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       `{"error": "Bad request"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
