package redisutil

import (
	"context"
	"fmt"

	"github.com/fastprodman/walletledger/internal/config"
	"github.com/redis/go-redis/v9"
)

// Open connects to Redis and pings it. A nil client with a nil error means
// Redis is not configured.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
