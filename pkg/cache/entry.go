package cache

import (
	"net/http"
	"time"
)

// Entry is a cached People service response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for If-None-Match revalidation
	ETag string `json:"etag,omitempty"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// LastModified from the Last-Modified header, used for If-Modified-Since
	LastModified time.Time `json:"last_modified,omitempty"`

	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers,omitempty"`
	CachedAt   time.Time   `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
