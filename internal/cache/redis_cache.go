package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"smartquote/backend/internal/domain"
)

type RedisRankingCache struct {
	client *redis.Client
}

func NewRedisRankingCache(addr string, password string, db int) *RedisRankingCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisRankingCache{client: client}
}

func (c *RedisRankingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRankingCache) Close() error {
	return c.client.Close()
}

func (c *RedisRankingCache) Get(ctx context.Context, key string) ([]domain.RankedCandidate, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var candidates []domain.RankedCandidate
	if err := json.Unmarshal([]byte(val), &candidates); err != nil {
		return nil, false, err
	}
	return candidates, true, nil
}

func (c *RedisRankingCache) Set(ctx context.Context, key string, value []domain.RankedCandidate, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
