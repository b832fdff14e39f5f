package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientName tags engine connections in CLIENT LIST unless the URL sets one.
const ClientName = "stockroyale"

const pingTimeout = 3 * time.Second

// NewClient creates a Redis client for the price cache, idempotency keys and
// event channel, and fails fast when the server does not answer a ping.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = ClientName
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
