package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	peopleRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	peopleRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "people_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"error_class"})

	peopleRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// withDefaults fills unset fields from DefaultRetryConfig.
func (r RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = def.MaxAttempts
	}
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = def.InitialBackoff
	}
	if r.MaxBackoff < r.InitialBackoff {
		r.MaxBackoff = r.InitialBackoff
	}
	if r.BackoffMultiplier < 1 {
		r.BackoffMultiplier = def.BackoffMultiplier
	}
	return r
}

// attemptFunc performs one attempt. On failure it returns the error and its
// class; the class decides whether another attempt is made.
type attemptFunc func() (ErrorClass, error)

// retryWithBackoff executes fn with exponential backoff and ±20% jitter.
// It respects context cancellation while waiting.
func retryWithBackoff(ctx context.Context, config RetryConfig, logger zerolog.Logger, fn attemptFunc) error {
	var lastErr error
	var lastClass ErrorClass
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		class, err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		lastClass = class

		if !shouldRetry(class) {
			return lastErr
		}

		if attempt >= config.MaxAttempts {
			break
		}

		peopleRetriesTotal.WithLabelValues(string(class)).Inc()

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		peopleRetryBackoffSeconds.WithLabelValues(string(class)).Observe(jitter.Seconds())

		logger.Debug().
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, lastErr)
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	peopleRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
