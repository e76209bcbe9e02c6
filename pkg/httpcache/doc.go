// Package httpcache keeps the raw pages of gallery list responses in Redis
// so the fetch client can revalidate them with conditional requests.
//
// Pages are addressed by collection and cursor, the same way the feed
// addresses them, and stored as Redis hashes holding the body and its
// validator (ETag or Last-Modified). Every collection keeps an index of its
// cached pages so an upload can purge them all at once.
//
// The store sits below the query cache: it never decides whether data is
// fresh for the feed, it only lets the transport turn a full download into a
// 304 Not Modified when the server content has not changed.
//
// # Basic Usage
//
//	store := httpcache.NewStore(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
//
//	key, ok := httpcache.KeyFor("/api/images", url.Values{"after": {"c1"}})
//	page, err := store.Lookup(ctx, key)
//	if errors.Is(err, httpcache.ErrCacheMiss) {
//		// full request
//	}
//	if page.Revalidatable() {
//		httpcache.AddConditionalHeaders(req, page)
//	}
//
// # Metrics
//
//   - gallery_http_cache_hits_total, gallery_http_cache_misses_total
//   - gallery_http_cache_pages_stored_total, gallery_http_cache_stored_bytes_total
//   - gallery_http_cache_pages_purged_total
//   - gallery_http_304_responses_total
//   - gallery_http_conditional_requests_total
//   - gallery_http_cache_errors_total{operation}
package httpcache
