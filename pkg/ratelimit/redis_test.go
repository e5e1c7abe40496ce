package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis runs an in-memory Redis server for RedisLimiter tests,
// mirroring pkg/net/http/ratelimit_test.go's setupTestRedis helper in the
// reference repo.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestRedisLimiterPermitsUpToMaxWithinWindow(t *testing.T) {
	_, client := setupTestRedis(t)
	l := NewRedis(client, 3, time.Minute, "test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "client-1") {
			t.Fatalf("expected call %d to be allowed", i+1)
		}
	}

	if l.Allow(ctx, "client-1") {
		t.Fatal("expected the 4th call within the window to be rejected")
	}
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	l := NewRedis(client, 1, time.Minute, "test")
	ctx := context.Background()

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected the first call for client-1 to be allowed")
	}

	if !l.Allow(ctx, "client-2") {
		t.Fatal("expected client-2's window to be independent of client-1's")
	}

	if l.Allow(ctx, "client-1") {
		t.Fatal("expected client-1 to still be rate-limited")
	}
}

func TestRedisLimiterResetsAfterWindowElapses(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := NewRedis(client, 1, 10*time.Second, "test")
	ctx := context.Background()

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected the first call to be allowed")
	}

	if l.Allow(ctx, "client-1") {
		t.Fatal("expected the second immediate call to be rejected")
	}

	mr.FastForward(11 * time.Second)

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected a new window to reset the count")
	}
}

func TestRedisLimiterFailsOpenWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewRedis(client, 1, time.Minute, "test")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if !l.Allow(ctx, "client-1") {
		t.Fatal("expected Allow to fail open when Redis is unreachable")
	}
}
