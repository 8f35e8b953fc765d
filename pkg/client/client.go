// Package client provides the People service HTTP client with rate limiting,
// caching, retries and error classification.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/people-finder/pkg/cache"
	"github.com/Sternrassler/people-finder/pkg/people"
	"github.com/Sternrassler/people-finder/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// People service endpoints.
const (
	ListPath        = "/sample/list"
	DetailPath      = "/sample/detail"
	ListTokenParam  = "token"
	endpointList    = "list"
	endpointDetail  = "detail"
	defaultAgent    = "people-finder/0.1.0"
	defaultTimeout  = time.Second
	maxResponseSize = 1 << 20
)

// Prometheus metrics for People client operations.
var (
	peopleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_requests_total",
		Help: "Total People service requests by endpoint and status",
	}, []string{"endpoint", "status"})

	peopleRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "people_request_duration_seconds",
		Help:    "People service call duration in seconds by endpoint, retries included",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	peopleErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_errors_total",
		Help: "Total People service errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the People service, e.g. "https://people.example.com" (REQUIRED)
	BaseURL string

	// User-Agent header
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Redis enables the detail response cache and the shared rate limit
	// cooldown. Optional.
	Redis *redis.Client

	// CacheTTL for detail responses without freshness headers
	CacheTTL time.Duration

	// RateLimit configures outbound throttling (disabled by default)
	RateLimit ratelimit.Config

	// Retry policy
	Retry RetryConfig

	// Logger to derive the client logger from (default: global logger)
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration with safe defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: defaultAgent,
		Timeout:   defaultTimeout,
		CacheTTL:  cache.DefaultTTL,
		Retry:     DefaultRetryConfig(),
	}
}

// Client talks to the list and detail endpoints of the People service.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new People client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.Retry = cfg.Retry.withDefaults()

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "people-client").Logger()
	} else {
		logger = log.With().Str("component", "people-client").Logger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		limiter:    ratelimit.NewLimiter(cfg.RateLimit, cfg.Redis, logger),
		config:     cfg,
		logger:     logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	return c, nil
}

// List calls the list endpoint. An empty token requests the first page.
func (c *Client) List(ctx context.Context, token string) (people.ListPage, error) {
	u := c.baseURL.JoinPath(ListPath)
	if token != "" {
		u.RawQuery = url.Values{ListTokenParam: []string{token}}.Encode()
	}

	body, err := c.fetch(ctx, endpointList, u, false)
	if err != nil {
		return people.ListPage{}, err
	}

	page, err := people.ParseListPage(body)
	if err != nil {
		return people.ListPage{}, c.payloadError(endpointList, err)
	}
	return page, nil
}

// Detail calls the detail endpoint for one person.
func (c *Client) Detail(ctx context.Context, id people.ID) (people.Person, error) {
	if id == 0 {
		return people.Person{}, &TransportError{
			Endpoint:   endpointDetail,
			ErrorClass: ErrorClassClient,
			Message:    "invalid request",
			Err:        ErrMissingID,
		}
	}

	u := c.baseURL.JoinPath(DetailPath, strconv.FormatInt(int64(id), 10))

	body, err := c.fetch(ctx, endpointDetail, u, true)
	if err != nil {
		return people.Person{}, err
	}

	person, err := people.ParsePerson(body)
	if err != nil {
		if c.cache != nil {
			_ = c.cache.Delete(ctx, cache.Key{Endpoint: u.Path})
		}
		return people.Person{}, c.payloadError(endpointDetail, err)
	}
	return person, nil
}

func (c *Client) payloadError(endpoint string, err error) error {
	peopleErrorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
	c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Malformed People response")
	return &TransportError{
		Endpoint:   endpoint,
		StatusCode: http.StatusOK,
		ErrorClass: ErrorClassPayload,
		Message:    "malformed response",
		Err:        err,
	}
}

// fetch performs a GET with rate limiting, optional caching and retries, and
// returns the response body of a 200 (or the cached body after a 304).
func (c *Client) fetch(ctx context.Context, endpoint string, u *url.URL, cacheable bool) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		peopleRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	var cacheKey cache.Key
	var stale *cache.Entry
	useCache := cacheable && c.cache != nil
	if useCache {
		cacheKey = cache.Key{Endpoint: u.Path, Query: u.Query()}
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			peopleRequestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			c.logger.Debug().Str("endpoint", endpoint).Str("path", u.Path).Msg("Served from cache")
			return entry.Data, nil
		case errors.Is(err, cache.ErrCacheMiss):
			stale = entry
		default:
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// Step 2: Execute with retry
	var (
		body   []byte
		status int
		header http.Header
	)
	retryErr := retryWithBackoff(ctx, c.config.Retry, c.logger, func() (ErrorClass, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return ErrorClassCanceled, &TransportError{
				Endpoint:   endpoint,
				ErrorClass: ErrorClassCanceled,
				Message:    "rate limiter wait aborted",
				Err:        err,
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return ErrorClassClient, &TransportError{
				Endpoint:   endpoint,
				ErrorClass: ErrorClassClient,
				Message:    "create request",
				Err:        err,
			}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if stale != nil && cache.ShouldMakeConditionalRequest(stale) {
			cache.AddConditionalHeaders(req, stale)
			cache.ConditionalRequestsSent.Inc()
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("url", u.String()).
			Msg("Executing People request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			class := ErrorClassNetwork
			if ctx.Err() != nil {
				class = ErrorClassCanceled
			}
			peopleErrorsTotal.WithLabelValues(string(class)).Inc()
			peopleRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			return class, &TransportError{
				Endpoint:   endpoint,
				ErrorClass: class,
				Message:    "request failed",
				Err:        err,
			}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			peopleErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return ErrorClassNetwork, &TransportError{
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassNetwork,
				Message:    "read response body",
				Err:        err,
			}
		}

		peopleRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusOK || (resp.StatusCode == http.StatusNotModified && stale != nil) {
			body, status, header = data, resp.StatusCode, resp.Header
			return "", nil
		}

		class := classifyStatus(resp.StatusCode)
		peopleErrorsTotal.WithLabelValues(string(class)).Inc()

		if class == ErrorClassRateLimit {
			if d, ok := ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				if err := c.limiter.Cooldown(ctx, d); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to record cooldown")
				}
			}
		}

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("People request error")

		return class, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	})
	if retryErr != nil {
		return nil, retryErr
	}

	// Step 3: Revalidated - serve the cached body and extend its lifetime
	if status == http.StatusNotModified {
		cache.NotModifiedResponses.Inc()
		newExpires := cache.ExpiresAt(header, time.Now(), c.cache.DefaultTTL())
		if err := c.cache.Refresh(ctx, cacheKey, stale, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		return stale.Data, nil
	}

	// Step 4: Store fresh responses
	if useCache {
		entry, err := cache.ResponseToEntry(&http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(bytes.NewReader(body)),
		}, c.cache.DefaultTTL())
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, or nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
