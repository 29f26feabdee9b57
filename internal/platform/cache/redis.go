package cache

import (
	"context"
	"fmt"
	"time"

	"minitorque_web/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New creates a Redis client from a redis:// URL and checks it answers.
func New(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("platform/cache: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// ProvideRedis connects when REDIS_URL is set; otherwise it returns a nil client.
func ProvideRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	client, err := New(context.Background(), cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to Redis")
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing Redis client", zap.Error(err))
		}
	}, nil
}
