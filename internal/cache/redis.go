package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"grandpa/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache connects to cfg.RedisAddr. It returns nil without error when
// no address is configured.
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{Client: client}, nil
}

func (c *RedisCache) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.Client.Publish(ctx, channel, payload).Err()
}

// PSubscribe subscribes to every channel matching pattern. The caller owns
// the returned subscription and must close it.
func (c *RedisCache) PSubscribe(ctx context.Context, pattern string) *redis.PubSub {
	return c.Client.PSubscribe(ctx, pattern)
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}
