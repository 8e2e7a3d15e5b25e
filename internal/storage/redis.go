package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/coop-console/internal/domain"
)

const redisKeyPrefix = "console:client:"

// RedisBackend stores client namespaces as plain Redis string keys.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend wraps an existing client. A zero ttl keeps keys forever;
// otherwise every write refreshes the key's expiry.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

// Scope returns the namespace for client.
func (b *RedisBackend) Scope(client domain.ClientID) ClientStorage {
	return &redisScope{backend: b, client: client}
}

// Ping verifies Redis connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if b == nil || b.client == nil {
		return errors.New("redis client not configured")
	}
	return b.client.Ping(ctx).Err()
}

// Close closes the client.
func (b *RedisBackend) Close() {
	if b != nil && b.client != nil {
		_ = b.client.Close()
	}
}

func redisKey(client domain.ClientID, key string) string {
	return redisKeyPrefix + string(client) + ":" + key
}

type redisScope struct {
	backend *RedisBackend
	client  domain.ClientID
}

func (s *redisScope) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.backend.client.Get(ctx, redisKey(s.client, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *redisScope) Set(ctx context.Context, key, value string) error {
	if err := s.backend.client.Set(ctx, redisKey(s.client, key), value, s.backend.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisScope) Delete(ctx context.Context, key string) error {
	if err := s.backend.client.Del(ctx, redisKey(s.client, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
