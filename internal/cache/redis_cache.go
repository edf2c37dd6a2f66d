package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisEstimateStore struct {
	client *redis.Client
}

func NewRedisEstimateStore(addr string, password string, db int) *RedisEstimateStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisEstimateStore{client: client}
}

func (c *RedisEstimateStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisEstimateStore) Close() error {
	return c.client.Close()
}

func (c *RedisEstimateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisEstimateStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if len(payload) == 0 {
		return nil
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisEstimateStore) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
