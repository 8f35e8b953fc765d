package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "people"

// Key identifies a cached response.
type Key struct {
	// Endpoint is the request path (e.g. "/sample/detail/42")
	Endpoint string

	// Query holds the request query parameters
	Query url.Values
}

// String generates a deterministic Redis key.
// Format: people:sample/detail/42:param1=val1:param2=val2
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, name+"="+k.Query.Get(name))
		}
	}

	return strings.Join(parts, ":")
}
