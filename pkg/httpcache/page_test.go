package httpcache

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestPageFromResponse(t *testing.T) {
	lastMod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Etag":          []string{`"abc123"`},
			"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
			"Content-Type":  []string{"application/json; charset=utf-8"},
		},
	}

	p := PageFromResponse(resp, []byte(`{"data":[],"after":null}`))

	if p.ETag != `"abc123"` {
		t.Errorf("ETag = %q", p.ETag)
	}
	if !p.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", p.LastModified, lastMod)
	}
	if string(p.Body) != `{"data":[],"after":null}` {
		t.Errorf("Body = %s", p.Body)
	}
	if p.StoredAt.IsZero() {
		t.Error("StoredAt should be set")
	}
}

func TestTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
	}{
		{"no headers", http.Header{}, DefaultTTL},
		{"expires in future", http.Header{"Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}}, time.Hour},
		{"expires in past", http.Header{"Expires": []string{now.Add(-time.Hour).Format(http.TimeFormat)}}, 0},
		{"invalid expires", http.Header{"Expires": []string{"soon"}}, DefaultTTL},
		{"max-age wins", http.Header{
			"Cache-Control": []string{"public, max-age=30"},
			"Expires":       []string{now.Add(time.Hour).Format(http.TimeFormat)},
		}, 30 * time.Second},
		{"max-age zero", http.Header{"Cache-Control": []string{"max-age=0"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TTL(tt.header, now); got != tt.want {
				t.Errorf("TTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		page       *Page
		wantHeader string
		wantValue  string
	}{
		{"etag preferred", &Page{ETag: `"v1"`, LastModified: lastMod}, "If-None-Match", `"v1"`},
		{"last modified", &Page{LastModified: lastMod}, "If-Modified-Since", lastMod.Format(http.TimeFormat)},
		{"no validator", &Page{}, "", ""},
		{"nil page", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://gallery.test/api/images", nil)
			AddConditionalHeaders(req, tt.page)

			if tt.wantHeader == "" {
				if req.Header.Get("If-None-Match") != "" || req.Header.Get("If-Modified-Since") != "" {
					t.Error("no conditional header expected")
				}
				return
			}
			if got := req.Header.Get(tt.wantHeader); got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantHeader, got, tt.wantValue)
			}
		})
	}
}

func TestPage_Header(t *testing.T) {
	p := &Page{ETag: `"v1"`}
	h := p.Header()
	if h.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json default", h.Get("Content-Type"))
	}
	if h.Get("ETag") != `"v1"` {
		t.Errorf("ETag = %q", h.Get("ETag"))
	}
	if h.Get("Last-Modified") != "" {
		t.Error("Last-Modified should be absent")
	}
}

func TestPageFields_RoundTrip(t *testing.T) {
	in := &Page{
		Body:         []byte(`{"data":[{"id":"a"}]}`),
		ETag:         `"v1"`,
		LastModified: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ContentType:  "application/json",
		StoredAt:     time.UnixMilli(1714564800123),
	}

	// Redis hands every field back as a string.
	raw := make(map[string]string)
	for k, v := range in.fields() {
		switch v := v.(type) {
		case []byte:
			raw[k] = string(v)
		case string:
			raw[k] = v
		}
	}

	out, err := pageFromFields(raw)
	if err != nil {
		t.Fatalf("pageFromFields() error = %v", err)
	}
	if string(out.Body) != string(in.Body) || out.ETag != in.ETag || !out.LastModified.Equal(in.LastModified) || !out.StoredAt.Equal(in.StoredAt) {
		t.Errorf("pageFromFields() = %+v, want %+v", out, in)
	}

	delete(raw, fieldBody)
	if _, err := pageFromFields(raw); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("missing body error = %v, want ErrInvalidEntry", err)
	}
}
