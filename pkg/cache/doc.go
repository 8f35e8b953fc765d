// Package cache provides a Redis-backed response cache for People service
// detail calls.
//
// Detail records change rarely, so the client stores successful detail
// responses and revalidates them with conditional requests once they go
// stale. List responses are never cached: their continuation tokens are
// cursors, not stable resources.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, 10*time.Minute)
//
//	key := cache.Key{Endpoint: "/sample/detail/42"}
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the People service
//	}
//
// # Expiry
//
// An entry expires at the response's Cache-Control max-age, else at its
// Expires header, else after the manager's default TTL.
//
// # Metrics
//
//   - people_cache_hits_total - Cache hits
//   - people_cache_misses_total - Cache misses
//   - people_cache_size_bytes - Bytes written to Redis
//   - people_cache_not_modified_total - 304 revalidations
//   - people_cache_errors_total{operation} - Cache operation errors
package cache
