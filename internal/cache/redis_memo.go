package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

type RedisMemo struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisMemo(client *redisv9.Client, ttl time.Duration) *RedisMemo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMemo{client: client, ttl: ttl}
}

func (c *RedisMemo) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get memo failed: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal cached memo failed: %w", err)
	}
	return true, nil
}

func (c *RedisMemo) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal memo failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set memo failed: %w", err)
	}
	return nil
}

func (c *RedisMemo) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete memo failed: %w", err)
	}
	return nil
}
