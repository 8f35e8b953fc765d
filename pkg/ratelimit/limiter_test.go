package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestLimiter_Wait_Disabled(t *testing.T) {
	l := NewLimiter(Config{}, nil, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter should not block, took %v", elapsed)
	}
}

func TestLimiter_Burst(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 2.5}, nil, zerolog.Nop())
	if got := l.bucket.Burst(); got != 3 {
		t.Errorf("Burst() = %d, want 3", got)
	}

	l = NewLimiter(Config{RequestsPerSecond: 10, Burst: 4}, nil, zerolog.Nop())
	if got := l.bucket.Burst(); got != 4 {
		t.Errorf("Burst() = %d, want 4", got)
	}
}

func TestLimiter_Cooldown_Local(t *testing.T) {
	l := NewLimiter(Config{}, nil, zerolog.Nop())
	ctx := context.Background()

	if err := l.Cooldown(ctx, 50*time.Millisecond); err != nil {
		t.Fatalf("Cooldown() error = %v", err)
	}

	state, err := l.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Active() {
		t.Fatal("cooldown should be active")
	}

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Wait() returned after %v, expected to sit out the cooldown", elapsed)
	}
}

func TestLimiter_Wait_ContextCancelled(t *testing.T) {
	l := NewLimiter(Config{}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Cooldown(ctx, time.Minute); err != nil {
		t.Fatal(err)
	}
	cancel()

	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestLimiter_Cooldown_SharedViaRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	first := NewLimiter(Config{}, client, zerolog.Nop())
	second := NewLimiter(Config{}, client, zerolog.Nop())

	if err := first.Cooldown(ctx, 30*time.Second); err != nil {
		t.Fatalf("Cooldown() error = %v", err)
	}
	if !mr.Exists(RedisKeyCooldownUntil) {
		t.Fatal("cooldown not written to redis")
	}

	state, err := second.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Active() {
		t.Error("second limiter should observe the shared cooldown")
	}

	// A shorter penalty must not shorten the shared window.
	if err := second.Cooldown(ctx, time.Second); err != nil {
		t.Fatal(err)
	}
	state, _ = first.GetState(ctx)
	if state.Remaining() < 20*time.Second {
		t.Errorf("shared cooldown shortened to %v", state.Remaining())
	}
}

func TestLimiter_Cooldown_Zero(t *testing.T) {
	l := NewLimiter(Config{}, nil, zerolog.Nop())
	if err := l.Cooldown(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	state, _ := l.GetState(context.Background())
	if state.Active() {
		t.Error("zero cooldown should not activate")
	}
}
