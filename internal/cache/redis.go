package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airreservation/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds login sessions keyed by token id. Domain entities are
// never cached; every read goes to the store.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}))
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) SaveSession(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	return c.client.Set(ctx, sessionKey(tokenID), userID, ttl).Err()
}

func (c *RedisCache) SessionExists(ctx context.Context, tokenID string) (bool, error) {
	err := c.client.Get(ctx, sessionKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) DeleteSession(ctx context.Context, tokenID string) error {
	return c.client.Del(ctx, sessionKey(tokenID)).Err()
}

func sessionKey(tokenID string) string {
	return "session:" + tokenID
}
