package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultConnectTimeout bounds the initial ping in NewRedisBackend.
const DefaultConnectTimeout = 5 * time.Second

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ErrAddrRequired is returned when RedisConfig.Addr is empty.
var ErrAddrRequired = errors.New("cache: redis address is required")

// RedisBackend is a ListBackend on top of go-redis.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis and verifies the connection with a ping.
// The caller owns the returned backend and must Close it.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, ErrAddrRequired
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisBackend{client: client}, nil
}

// NewRedisBackendFromClient wraps an existing client without pinging it.
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// GetList returns the whole list stored at key, or ErrMiss.
func (b *RedisBackend) GetList(ctx context.Context, key string) ([]string, error) {
	values, err := b.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("GetList: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrMiss
	}
	return values, nil
}

// SetList replaces the list at key atomically and sets its expiry.
func (b *RedisBackend) SetList(ctx context.Context, key string, values []string, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}
	items := make([]interface{}, len(values))
	for i, v := range values {
		items[i] = v
	}
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, items...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SetList: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
