package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karvix-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KV is a thin string key-value store over Redis. Every call is a single
// atomic Redis command; nothing here coordinates across keys.
type KV struct {
	client redis.Cmdable
}

func NewKV(client redis.Cmdable) *KV {
	return &KV{client: client}
}

// Set stores value under key. A zero ttl stores without expiry.
func (s *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key, or an error wrapping domain.ErrNotFound.
func (s *KV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("key %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// GetDel returns the value under key and removes it in one command, so
// concurrent callers never both observe it.
func (s *KV) GetDel(ctx context.Context, key string) (string, error) {
	v, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("key %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis getdel %s: %w", key, err)
	}
	return v, nil
}

// Del removes the given keys; missing keys are not an error.
func (s *KV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping is used by the health check.
func (s *KV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
