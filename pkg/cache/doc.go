// Package cache holds the query cache: the latest known result for every
// query key the feed has asked for.
//
// The cache is the single source of truth for what the UI shows. It never
// performs I/O and never fetches on its own. Writers are the fetch and
// mutation coordinators; readers are any number of UI components.
//
// # Keys
//
// A Key is an ordered, immutable sequence of primitive parts. Two keys are the
// same query when their canonical strings match:
//
//	cache.NewKey("images")                              // images
//	cache.NewKey("images", cache.Params{"after": "c1"}) // images:{after=c1}
//
// # Entry Lifecycle
//
//	Begin      -> Loading (previous value kept)
//	Write      -> Success, Stale cleared
//	Fail       -> Error, previous value kept (stale-while-error)
//	Invalidate -> Stale set on every matching entry, nothing fetched
//
// Invalidation only marks entries. Callers decide whether and when a stale
// entry is fetched again. A fetch that started before an invalidation and
// settles after it is stored with WriteAt and stays stale.
//
// # Metrics
//
//   - gallery_query_cache_hits_total
//   - gallery_query_cache_misses_total
//   - gallery_query_cache_writes_total
//   - gallery_query_cache_failures_total
//   - gallery_query_cache_invalidations_total
//   - gallery_query_cache_entries
package cache
