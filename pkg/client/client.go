// Package client provides the HTTP fetch client for the gallery API: one
// attempt per call, typed errors, optional conditional-request caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/gallery-feed/pkg/httpcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for gallery API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_requests_total",
		Help: "Total gallery API requests by method, path and status",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gallery_request_duration_seconds",
		Help:    "Gallery API request duration in seconds by method and path",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_errors_total",
		Help: "Total gallery API errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of a failed response body is kept on ServerError.
const maxErrorBody = 4 << 10

// Response is a completed gallery API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// FromCache is true when the body came from the response cache after a 304
	FromCache bool
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Client performs single requests against the gallery API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	store      *httpcache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the gallery API, e.g. "http://localhost:3000"
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout per request
	Timeout time.Duration

	// ResponseCache enables conditional GETs when set
	ResponseCache *httpcache.Store
}

// DefaultConfig returns a default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new gallery API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		store:   cfg.ResponseCache,
		config:  cfg,
		logger:  log.With().Str("component", "fetch-client").Logger(),
	}, nil
}

// Get performs a GET request. Empty parameter values are omitted.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	u := c.resolve(path)

	query := url.Values{}
	for name, values := range params {
		for _, v := range values {
			if v != "" {
				query.Add(name, v)
			}
		}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path).String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Do(req)
}

// Do executes one request. There is no retry: a transport failure returns a
// NetworkError and a non-2xx response returns a ServerError.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx := req.Context()
	path := req.URL.Path
	method := req.Method

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method, path).Observe(time.Since(startTime).Seconds())
	}()

	// Conditional GET when the page is cached
	var pageKey httpcache.Key
	var cacheable bool
	var cached *httpcache.Page
	if c.store != nil && method == http.MethodGet {
		pageKey, cacheable = httpcache.KeyFor(path, req.URL.Query())
	}
	if cacheable {
		page, err := c.store.Lookup(ctx, pageKey)
		if err != nil && !errors.Is(err, httpcache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("page", pageKey.String()).Msg("Page cache lookup error")
		}
		if page.Revalidatable() {
			cached = page
			httpcache.AddConditionalHeaders(req, page)
			httpcache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("page", pageKey.String()).
				Str("etag", page.ETag).
				Msg("Making conditional request")
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("query", req.URL.RawQuery).
		Msg("Executing gallery request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(method, path, "network_error").Inc()
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("Gallery request failed")
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(method, path, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified {
		if cached == nil {
			return nil, &ServerError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassClient,
				Message:    resp.Status,
				Err:        ErrNotModifiedWithoutCache,
			}
		}

		httpcache.NotModifiedResponses.Inc()
		c.logger.Debug().Str("page", pageKey.String()).Msg("304 Not Modified - using cached page")

		if err := c.store.Touch(ctx, pageKey, httpcache.TTL(resp.Header, time.Now())); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to extend cached page")
		}

		return &Response{
			StatusCode: http.StatusOK,
			Header:     cached.Header(),
			Body:       cached.Body,
			FromCache:  true,
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Gallery request error")

		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			Body:       body,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	if cacheable && resp.StatusCode == http.StatusOK {
		ttl := httpcache.TTL(resp.Header, time.Now())
		if err := c.store.Save(ctx, pageKey, httpcache.PageFromResponse(resp, body), ttl); err != nil {
			c.logger.Warn().Err(err).Str("page", pageKey.String()).Msg("Failed to cache page")
		}
	}

	if c.store != nil && method == http.MethodPost {
		c.purge(ctx, path)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// purge drops the cached pages of a collection after a successful write to
// it; every page may have shifted.
func (c *Client) purge(ctx context.Context, path string) {
	n, err := c.store.Purge(ctx, path)
	if err != nil {
		c.logger.Warn().Err(err).Str("collection", path).Msg("Failed to purge cached pages")
		return
	}
	c.logger.Debug().Str("collection", path).Int("pages", n).Msg("Purged cached pages")
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) resolve(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return &u
}

// classifyStatus categorizes a non-2xx status code.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}
