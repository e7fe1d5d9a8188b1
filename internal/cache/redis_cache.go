package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"pharmapos/backend/internal/domain"
)

type RedisAnalysisCache struct {
	client *redis.Client
}

func NewRedisAnalysisCache(addr string, password string, db int) *RedisAnalysisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisAnalysisCache{client: client}
}

func (c *RedisAnalysisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAnalysisCache) Close() error {
	return c.client.Close()
}

func (c *RedisAnalysisCache) Get(ctx context.Context, key string) (*domain.ImageAnalysis, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result domain.ImageAnalysis
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *RedisAnalysisCache) Set(ctx context.Context, key string, value *domain.ImageAnalysis, ttl time.Duration) error {
	if value == nil || len(value.Fields) == 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
