//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/people-finder/internal/testutil"
	"github.com/Sternrassler/people-finder/pkg/cache"
	"github.com/Sternrassler/people-finder/pkg/people"
	"github.com/Sternrassler/people-finder/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		redisContainer.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestIntegration_DetailCacheFlow exercises Limiter → Cache miss → People → Cache store → Cache hit.
func TestIntegration_DetailCacheFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockPeople()
	defer mock.Close()
	mock.AddPeople(people.Person{ID: 11, Name: "dora", Age: 31, PhoneNumber: "(555) 123-4567"})

	cfg := DefaultConfig(mock.URL())
	cfg.Redis = redisClient
	cfg.RateLimit = ratelimit.Config{RequestsPerSecond: 50}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		p, err := c.Detail(ctx, 11)
		if err != nil {
			t.Fatalf("Detail() #%d error = %v", i, err)
		}
		if p.Name != "dora" {
			t.Errorf("Detail() #%d = %+v", i, p)
		}
	}

	if calls := mock.DetailCalls(11); calls != 1 {
		t.Errorf("detail calls = %d, want 1", calls)
	}

	entry, err := c.GetCache().Get(ctx, cache.Key{Endpoint: DetailPath + "/11"})
	if err != nil {
		t.Fatalf("cache Get() error = %v", err)
	}
	if entry.TTL() <= 0 {
		t.Error("cached entry should still be fresh")
	}
}

// TestIntegration_SharedCooldown verifies a 429 penalty is visible to a second client.
func TestIntegration_SharedCooldown(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockPeople()
	defer mock.Close()
	mock.SetResponse(ListPath, testutil.NewRateLimitResponse("2"))

	cfg := DefaultConfig(mock.URL())
	cfg.Redis = redisClient
	cfg.Retry = RetryConfig{MaxAttempts: 1}
	first, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer first.Close()

	if _, err := first.List(context.Background(), ""); err == nil {
		t.Fatal("expected rate limit error")
	}

	second := ratelimit.NewLimiter(ratelimit.Config{}, redisClient, first.logger)
	state, err := second.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Active() || state.Remaining() > 2*time.Second {
		t.Errorf("unexpected shared cooldown %+v", state)
	}
}
