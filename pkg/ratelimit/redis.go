package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the Limiter backed by a shared go-redis/v9 client (§9 Open
// Question 5), so every Identity/Accounts replica counts against the same
// window instead of each keeping its own in-process counter. It uses the
// same INCR-then-EXPIRE fixed-window shape as InProcess: the first request
// in a window sets the TTL, later requests in the same window just INCR.
type RedisLimiter struct {
	Client    *redis.Client
	Max       int
	Window    time.Duration
	KeyPrefix string
}

func NewRedis(client *redis.Client, max int, windowLen time.Duration, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{Client: client, Max: max, Window: windowLen, KeyPrefix: keyPrefix}
}

// Allow increments key's counter for the current window, setting the
// window's expiry on the first hit, and reports whether the count is still
// within Max. On any Redis error it fails open, since a rate limiter that
// takes the whole service down with it is worse than one that occasionally
// over-admits.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("%s:%s", l.KeyPrefix, key)

	count, err := l.Client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true
	}

	if count == 1 {
		l.Client.Expire(ctx, redisKey, l.Window)
	}

	return count <= int64(l.Max)
}
