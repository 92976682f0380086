// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"

	"jtracker-hub/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection backing the shared state store.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis configures the client without dialing; the first command or Ping
// opens the connection.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	dial := config.GetDuration(cfg.DialTimeout)
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
		// Store transactions are a WATCH/GET/MULTI round trip on a single key.
		ReadTimeout:  dial / 2,
		WriteTimeout: dial / 2,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 1,
	})
	return &RedisClient{Client: rdb}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", c.Client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
