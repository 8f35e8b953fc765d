// Package metrics provides the Prometheus registry reference for people-finder.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, pagination, selector) to maintain modularity and avoid circular
// dependencies.
//
// people-finder is a batch job, so metrics are pushed to a Pushgateway at the
// end of a run rather than scraped (see Push).
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name used by the CLI.
const DefaultJob = "people_finder"

// Registry is the default Prometheus registry used by people-finder.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics sent by Push.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Push replaces the metrics of job on the Pushgateway at url with the
// current contents of Gatherer.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return fmt.Errorf("pushgateway url is empty")
	}
	if job == "" {
		job = DefaultJob
	}

	if err := push.New(url, job).Gatherer(Gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - people_rate_limit_wait_seconds (Histogram): Time spent waiting for a token or cooldown
//   - people_rate_limit_cooldowns_total (Counter): Cooldowns started from 429 Retry-After
//
// Cache Metrics (pkg/cache):
//   - people_cache_hits_total (Counter): Cache hits
//   - people_cache_misses_total (Counter): Cache misses
//   - people_cache_size_bytes (Gauge): Bytes written to Redis
//   - people_cache_not_modified_total (Counter): 304 Not Modified responses
//   - people_cache_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - people_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - people_requests_total{endpoint, status} (Counter): Requests by endpoint (list, detail) and HTTP status
//   - people_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - people_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, payload, canceled)
//
// Retry Metrics (pkg/client):
//   - people_retries_total{error_class} (Counter): Retry attempts by error class
//   - people_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - people_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pagination Metrics (pkg/pagination):
//   - people_pages_fetched_total (Counter): List pages fetched with their details
//   - people_detail_failures_total (Counter): Details dropped from a page
//   - people_page_duration_seconds (Histogram): Time per page including details
//   - people_stream_terminations_total{state, reason} (Counter): Finished stream traversals
//
// Selector Metrics (pkg/selector):
//   - people_selector_skipped_total{reason} (Counter): People skipped (no_phone, invalid_phone, invalid_age)
//   - people_selector_selected_total (Counter): People returned
//
// Example Prometheus Queries:
//
//   # Detail failure ratio
//   people_detail_failures_total / sum(people_requests_total{endpoint="detail"})
//
//   # Streams cut short by a list failure
//   people_stream_terminations_total{state="failed"}
//
//   # Cache Hit Rate
//   people_cache_hits_total / (people_cache_hits_total + people_cache_misses_total)
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(people_request_duration_seconds_bucket[5m]))
