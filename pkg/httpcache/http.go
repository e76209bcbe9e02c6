package httpcache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is how long a page is kept when the server sends no freshness
// headers.
const DefaultTTL = 5 * time.Minute

// PageFromResponse captures a 200 list response whose body was already read.
func PageFromResponse(resp *http.Response, body []byte) *Page {
	p := &Page{
		Body:        body,
		ETag:        resp.Header.Get("ETag"),
		ContentType: resp.Header.Get("Content-Type"),
		StoredAt:    time.Now(),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			p.LastModified = t
		}
	}
	return p
}

// TTL returns how long a response may be kept: Cache-Control max-age wins
// over Expires, and DefaultTTL applies when neither is usable. An expired
// response yields 0.
func TTL(header http.Header, now time.Time) time.Duration {
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil {
			if secs <= 0 {
				return 0
			}
			return time.Duration(secs) * time.Second
		}
	}

	expires := header.Get("Expires")
	if expires == "" {
		return DefaultTTL
	}
	t, err := http.ParseTime(expires)
	if err != nil {
		return DefaultTTL
	}
	if ttl := t.Sub(now); ttl > 0 {
		return ttl
	}
	return 0
}

// AddConditionalHeaders adds If-None-Match (preferred) or If-Modified-Since.
func AddConditionalHeaders(req *http.Request, p *Page) {
	if req == nil || !p.Revalidatable() {
		return
	}

	if p.ETag != "" {
		req.Header.Set("If-None-Match", p.ETag)
	} else {
		req.Header.Set("If-Modified-Since", p.LastModified.UTC().Format(http.TimeFormat))
	}
}
