package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/people-finder/internal/config"
	"github.com/Sternrassler/people-finder/pkg/client"
	"github.com/Sternrassler/people-finder/pkg/logging"
	"github.com/Sternrassler/people-finder/pkg/metrics"
	"github.com/Sternrassler/people-finder/pkg/pagination"
	"github.com/Sternrassler/people-finder/pkg/ratelimit"
	"github.com/Sternrassler/people-finder/pkg/selector"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	defaultYoungest = 5
	pushTimeout     = 5 * time.Second
)

type options struct {
	youngest int
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "people-finder",
		Short:         "Find the youngest people with a valid US phone number",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.youngest < 1 {
				return fmt.Errorf("--youngest must be at least 1 (got %d)", opts.youngest)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, out)
		},
	}

	cmd.Flags().IntVar(&opts.youngest, "youngest", defaultYoungest, "number of youngest people to print")
	return cmd
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(logging.NewLogger(logging.ComponentConfig))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger(logging.ComponentCLI)

	redisClient := connectRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	peopleClient, err := client.New(clientConfig(cfg, redisClient))
	if err != nil {
		return fmt.Errorf("create people client: %w", err)
	}
	defer peopleClient.Close()

	youngest, err := selector.NewYoungest(opts.youngest, logging.NewLogger(logging.ComponentSelector))
	if err != nil {
		return err
	}

	fetcher := pagination.NewPageFetcher(peopleClient, peopleClient, pagination.Config{
		MaxConcurrency: cfg.Stream.MaxConcurrency,
		MaxDepth:       cfg.Stream.MaxDepth,
	}, logging.NewLogger(logging.ComponentFetcher))
	stream := pagination.NewStream(fetcher, logging.NewLogger(logging.ComponentStream))

	start := time.Now()
	result := youngest.Select(stream.All(ctx))

	event := logger.Info()
	if stream.State() == pagination.StateFailed {
		event = logger.Warn().AnErr("stream_error", stream.Err())
	}
	event.
		Str("env", cfg.Env).
		Str("stream_id", stream.ID()).
		Stringer("state", stream.State()).
		Int("pages", stream.Pages()).
		Int("selected", len(result)).
		Dur("duration", time.Since(start)).
		Msg("Search finished")

	pushMetrics(ctx, cfg.Metrics.PushgatewayURL, logger)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func clientConfig(cfg *config.Config, redisClient *redis.Client) client.Config {
	cc := client.DefaultConfig(cfg.PeopleService.BaseURL)
	cc.Redis = redisClient
	if cfg.PeopleService.UserAgent != "" {
		cc.UserAgent = cfg.PeopleService.UserAgent
	}
	if cfg.PeopleService.Timeout > 0 {
		cc.Timeout = cfg.PeopleService.Timeout
	}
	if cfg.Redis.CacheTTL > 0 {
		cc.CacheTTL = cfg.Redis.CacheTTL
	}
	if cfg.PeopleService.MaxRetries > 0 {
		cc.Retry.MaxAttempts = cfg.PeopleService.MaxRetries + 1
	}
	cc.RateLimit = ratelimit.Config{
		RequestsPerSecond: cfg.PeopleService.RequestsPerSecond,
		Burst:             cfg.PeopleService.Burst,
	}
	return cc
}

// connectRedis returns nil when Redis is not configured or unreachable;
// the client then runs without cache and shared cooldown.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unreachable, continuing without cache")
		_ = redisClient.Close()
		return nil
	}

	logger.Debug().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return redisClient
}

func pushMetrics(ctx context.Context, url string, logger zerolog.Logger) {
	if url == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := metrics.Push(ctx, url, metrics.DefaultJob); err != nil {
		logger.Error().Err(err).Msg("Metrics push failed")
		return
	}
	logger.Debug().Str("url", url).Msg("Metrics pushed")
}
