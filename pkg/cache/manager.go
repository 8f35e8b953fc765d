package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager stores People responses in Redis.
type Manager struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewManager creates a cache manager. A non-positive defaultTTL falls back to
// DefaultTTL.
func NewManager(redisClient *redis.Client, defaultTTL time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Manager{
		redis:      redisClient,
		defaultTTL: defaultTTL,
	}
}

// DefaultTTL returns the TTL used for responses without freshness headers.
func (m *Manager) DefaultTTL() time.Duration {
	return m.defaultTTL
}

// Get retrieves an entry. Stale entries are still returned (with
// ErrCacheMiss) when they carry a validator, so the caller can revalidate.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		CacheMisses.Inc()
		if ShouldMakeConditionalRequest(&entry) {
			return &entry, ErrCacheMiss
		}
		_ = m.Delete(ctx, key)
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	return &entry, nil
}

// Set stores an entry. The Redis key outlives the entry's freshness by the
// default TTL so stale entries can still be revalidated with their ETag.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	ttl := entry.TTL()
	if ShouldMakeConditionalRequest(entry) {
		ttl += m.defaultTTL
	}
	if ttl <= 0 {
		return nil
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.Add(float64(len(data)))
	return nil
}

// Delete removes an entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Refresh extends a revalidated entry after a 304 Not Modified response.
func (m *Manager) Refresh(ctx context.Context, key Key, entry *Entry, newExpires time.Time) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	refreshed := *entry
	refreshed.Expires = newExpires
	refreshed.CachedAt = time.Now()
	return m.Set(ctx, key, &refreshed)
}
