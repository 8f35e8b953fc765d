package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL applies when a response carries no freshness information.
const DefaultTTL = 5 * time.Minute

// ResponseToEntry converts an HTTP response to an Entry.
// The response body is read and restored so the caller can still consume it.
func ResponseToEntry(resp *http.Response, defaultTTL time.Duration) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	entry := &Entry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   now,
		Expires:    ExpiresAt(resp.Header, now, defaultTTL),
	}

	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		if t, err := http.ParseTime(lastMod); err == nil {
			entry.LastModified = t
		}
	}

	return entry, nil
}

// ExpiresAt derives the expiry time. Cache-Control max-age wins over Expires;
// no-store and no-cache yield an already expired entry.
func ExpiresAt(headers http.Header, now time.Time, defaultTTL time.Duration) time.Time {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	if cc := headers.Get("Cache-Control"); cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.TrimSpace(strings.ToLower(directive))
			switch {
			case directive == "no-store" || directive == "no-cache":
				return now
			case strings.HasPrefix(directive, "max-age="):
				if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && secs >= 0 {
					return now.Add(time.Duration(secs) * time.Second)
				}
			}
		}
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(defaultTTL)
	}
	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(defaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// ShouldMakeConditionalRequest reports whether the entry carries a validator.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return entry.ETag != "" || !entry.LastModified.IsZero()
}

// AddConditionalHeaders sets If-None-Match, or If-Modified-Since when no ETag
// is known.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
}

// EntryToResponse rebuilds an HTTP response from a cached entry.
func EntryToResponse(entry *Entry, req *http.Request) *http.Response {
	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	headers := entry.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
		Request:       req,
	}
}
