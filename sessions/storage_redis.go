package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Storage = (*RedisStorage)(nil)

// RedisStorage keeps scopes in redis. Each key carries the idle TTL, renewed on every read and
// write, so redis expires abandoned scopes by itself.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage connects to redis and verifies the connection with a ping
func NewRedisStorage(ctx context.Context, cfg RedisConfig, idleTTL time.Duration) (*RedisStorage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("[sessions NewRedisStorage] redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[sessions NewRedisStorage] redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "rift:scope:"
	}
	return &RedisStorage{
		client: client,
		prefix: prefix,
		ttl:    idleTTL,
	}, nil
}

func (s *RedisStorage) key(scope, key string) string {
	return s.prefix + scope + ":" + key
}

func (s *RedisStorage) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.client.GetEx(ctx, s.key(scope, key), s.ttl)
	} else {
		cmd = s.client.Get(ctx, s.key(scope, key))
	}
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("key %s: %w", key, apperrors.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

func (s *RedisStorage) Set(ctx context.Context, scope, key string, value []byte) error {
	if scope == "" {
		return apperrors.ErrInvalidScope
	}
	if err := s.client.Set(ctx, s.key(scope, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
