// Package cache provides a Redis-backed document cache for dictionary pages.
//
// Pages are cached by site and URL. An entry is fresh until its Expires time
// (taken from the response's Cache-Control max-age or Expires header, or
// DefaultTTL). Stale entries are kept for a revalidation window so the fetch
// layer can send a conditional request (If-None-Match / If-Modified-Since)
// and refresh the entry on 304 Not Modified instead of downloading it again.
//
// # Basic Usage
//
//	redisClient, err := cache.Connect(ctx, "redis://localhost:6379/0")
//	if err != nil {
//		return err
//	}
//	manager := cache.NewManager(redisClient)
//
//	key := cache.DocumentKey{Site: "webster", URL: "https://www.merriam-webster.com/dictionary/happy"}
//
//	doc, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch the page
//	case doc.IsExpired() && cache.CanRevalidate(doc):
//		// send cache.ConditionalHeaders(doc) with the request
//	default:
//		// serve doc.Body
//	}
//
// # Metrics
//
//   - dictcrawl_cache_hits_total - fresh entries served
//   - dictcrawl_cache_misses_total - absent entries
//   - dictcrawl_cache_stale_total - stale entries returned for revalidation
//   - dictcrawl_cache_not_modified_total - 304 responses that refreshed an entry
//   - dictcrawl_cache_errors_total{operation} - Redis or encoding failures
//   - dictcrawl_cache_stored_bytes_total - bytes written to Redis
package cache
