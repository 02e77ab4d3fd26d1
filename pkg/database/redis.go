// Package database opens the SQL and Redis connections used by the stores.
package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

// OpenRedis connects to Redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
