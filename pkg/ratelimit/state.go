// Package ratelimit throttles outbound People service requests.
//
// Two mechanisms combine: a client-side token bucket that caps the request
// rate, and a cooldown window opened when the service answers 429 with a
// Retry-After header. The cooldown is stored in Redis when available so every
// process sharing the service backs off together.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for shared limiter state.
const (
	RedisKeyCooldownUntil = "people:ratelimit:cooldown_until"
)

// MaxCooldown caps a single Retry-After penalty.
const MaxCooldown = 2 * time.Minute

// CooldownState describes the current back-off window.
type CooldownState struct {
	// Until is when requests may resume. Zero means no cooldown.
	Until time.Time `json:"until"`
}

// Active returns true while the cooldown has not elapsed.
func (s CooldownState) Active() bool {
	return time.Now().Before(s.Until)
}

// Remaining returns the time left in the cooldown, or 0.
func (s CooldownState) Remaining() time.Duration {
	d := time.Until(s.Until)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter reads a Retry-After header value, either delay-seconds or
// an HTTP date. ok is false when the value is missing or unparseable.
func ParseRetryAfter(value string, now time.Time) (d time.Duration, ok bool) {
	if value == "" {
		return 0, false
	}
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return clampCooldown(time.Duration(secs) * time.Second), true
	}
	if t, err := http.ParseTime(value); err == nil {
		return clampCooldown(t.Sub(now)), true
	}
	return 0, false
}

func clampCooldown(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxCooldown {
		return MaxCooldown
	}
	return d
}
