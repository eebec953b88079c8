package redistools

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/redis/go-redis/v9"
)

const maxDelay = 5 * time.Second

// New creates a client for cfg and waits until it answers a ping.
func New(ctx context.Context, cfg config.RedisCache) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := Connect(ctx, rdb); err != nil {
		rdb.Close()

		return nil, fmt.Errorf("connect error: %w", err)
	}

	return rdb, nil
}

// Connect pings rdb with a growing delay between attempts and gives up once
// the delay would exceed maxDelay.
func Connect(ctx context.Context, rdb *redis.Client) error {
	delay := 200 * time.Millisecond //nolint:gomnd

	for {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			return nil
		}

		if delay > maxDelay {
			return fmt.Errorf("cannot ping redis db error: %w", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context error: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
	}
}
