package httpcache

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Page is a cached list response: the page body as the server sent it and
// the validator the server needs to answer 304 Not Modified.
type Page struct {
	Body         []byte
	ETag         string
	LastModified time.Time
	ContentType  string
	StoredAt     time.Time
}

// Revalidatable reports whether the page carries a validator the server can
// check.
func (p *Page) Revalidatable() bool {
	return p != nil && (p.ETag != "" || !p.LastModified.IsZero())
}

// Header rebuilds the response headers served together with a cached body.
func (p *Page) Header() http.Header {
	h := http.Header{}
	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	h.Set("Content-Type", contentType)
	if p.ETag != "" {
		h.Set("ETag", p.ETag)
	}
	if !p.LastModified.IsZero() {
		h.Set("Last-Modified", p.LastModified.UTC().Format(http.TimeFormat))
	}
	return h
}

// Redis hash fields of a stored page.
const (
	fieldBody         = "body"
	fieldETag         = "etag"
	fieldLastModified = "last_modified"
	fieldContentType  = "content_type"
	fieldStoredAt     = "stored_at"
)

func (p *Page) fields() map[string]any {
	lastModified := ""
	if !p.LastModified.IsZero() {
		lastModified = p.LastModified.UTC().Format(http.TimeFormat)
	}
	return map[string]any{
		fieldBody:         p.Body,
		fieldETag:         p.ETag,
		fieldLastModified: lastModified,
		fieldContentType:  p.ContentType,
		fieldStoredAt:     strconv.FormatInt(p.StoredAt.UnixMilli(), 10),
	}
}

func pageFromFields(fields map[string]string) (*Page, error) {
	body, ok := fields[fieldBody]
	if !ok {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidEntry)
	}

	p := &Page{
		Body:        []byte(body),
		ETag:        fields[fieldETag],
		ContentType: fields[fieldContentType],
	}
	if lm := fields[fieldLastModified]; lm != "" {
		t, err := http.ParseTime(lm)
		if err != nil {
			return nil, fmt.Errorf("%w: last_modified: %v", ErrInvalidEntry, err)
		}
		p.LastModified = t
	}
	if ms := fields[fieldStoredAt]; ms != "" {
		n, err := strconv.ParseInt(ms, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: stored_at: %v", ErrInvalidEntry, err)
		}
		p.StoredAt = time.UnixMilli(n)
	}
	return p, nil
}
