// Package mredis wires a go-redis/v9 client used both for the accounts
// cache-aside read path and, optionally, as the rate limiter's distributed
// counter backing store (Open Question 5).
package mredis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vertexpay/core/pkg/mlog"
)

// Connection is a hub for a single Redis client.
type Connection struct {
	URL string

	Logger mlog.Logger

	client    *redis.Client
	connected bool
}

// Connect parses the connection URL and pings the server.
func (rc *Connection) Connect(ctx context.Context) error {
	rc.Logger.Info("connecting to redis...")

	opts, err := redis.ParseURL(rc.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	rc.client = client
	rc.connected = true

	rc.Logger.Info("connected to redis")

	return nil
}

// Client lazily connects if necessary and returns the underlying client.
func (rc *Connection) Client(ctx context.Context) (*redis.Client, error) {
	if !rc.connected {
		if err := rc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return rc.client, nil
}
