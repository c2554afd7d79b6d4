package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"basegraph.app/studiobot/core/config"
)

// Open builds the configured backend. A Redis backend is pinged before it is returned.
func Open(ctx context.Context, cfg config.QueueConfig, logger *slog.Logger) (Queue, error) {
	if cfg.InProcess() {
		return NewMemoryQueue(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisQueue(client, cfg.KeyPrefix, logger), nil
}
