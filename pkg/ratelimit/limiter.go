package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "people_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting on the limiter",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	rateLimitCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_rate_limit_cooldowns_total",
		Help: "Total number of cooldowns opened by 429 responses",
	})
)

// Config holds limiter settings.
type Config struct {
	// RequestsPerSecond caps the outbound request rate. <= 0 disables the bucket.
	RequestsPerSecond float64

	// Burst is the bucket size (default: 1, or RequestsPerSecond rounded up).
	Burst int
}

// Limiter gates outbound requests.
type Limiter struct {
	bucket *rate.Limiter
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.Mutex
	local CooldownState
}

// NewLimiter creates a limiter. redisClient may be nil, in which case the
// cooldown is kept in memory.
func NewLimiter(cfg Config, redisClient *redis.Client, logger zerolog.Logger) *Limiter {
	l := &Limiter{
		redis:  redisClient,
		logger: logger,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond)
			if float64(burst) < cfg.RequestsPerSecond {
				burst++
			}
		}
		l.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return l
}

// GetState returns the current cooldown state. Redis errors fall back to the
// in-memory state.
func (l *Limiter) GetState(ctx context.Context) (CooldownState, error) {
	l.mu.Lock()
	local := l.local
	l.mu.Unlock()

	if l.redis == nil {
		return local, nil
	}

	millis, err := l.redis.Get(ctx, RedisKeyCooldownUntil).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return local, nil
		}
		return local, fmt.Errorf("get cooldown: %w", err)
	}

	shared := CooldownState{Until: time.UnixMilli(millis)}
	if shared.Until.After(local.Until) {
		return shared, nil
	}
	return local, nil
}

// Cooldown opens a back-off window of duration d, unless a longer one is
// already open.
func (l *Limiter) Cooldown(ctx context.Context, d time.Duration) error {
	d = clampCooldown(d)
	if d == 0 {
		return nil
	}
	until := time.Now().Add(d)

	l.mu.Lock()
	if until.After(l.local.Until) {
		l.local.Until = until
	}
	l.mu.Unlock()

	rateLimitCooldownsTotal.Inc()
	l.logger.Warn().
		Dur("cooldown", d).
		Time("until", until).
		Msg("People service asked to back off")

	if l.redis == nil {
		return nil
	}

	current, err := l.GetState(ctx)
	if err == nil && current.Until.After(until) {
		return nil
	}
	if err := l.redis.Set(ctx, RedisKeyCooldownUntil, strconv.FormatInt(until.UnixMilli(), 10), d).Err(); err != nil {
		return fmt.Errorf("store cooldown in redis: %w", err)
	}
	return nil
}

// Wait blocks until a request may be sent: first any open cooldown, then a
// token from the bucket.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	defer func() {
		rateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	state, err := l.GetState(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Cooldown lookup failed, using local state")
	}

	if wait := state.Remaining(); wait > 0 {
		l.logger.Debug().Dur("wait", wait).Msg("Waiting for cooldown")

		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if l.bucket == nil {
		return nil
	}
	return l.bucket.Wait(ctx)
}
