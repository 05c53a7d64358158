package storagedata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

var errRedisClientUnavailable = errors.New("redis storage client unavailable")

// RedisClient captures the subset of redis.Client used by the store.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	client RedisClient
	prefix string
	// owned is set when the factory dialed the client itself.
	owned io.Closer
}

func newRedisStore(client RedisClient, prefix string) Store {
	if prefix == "" {
		prefix = defaultStoragePrefix
	}
	return &redisStore{client: client, prefix: prefix}
}

// connectRedis parses url, opens a client and checks it answers PING.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *redisStore) Driver() Driver {
	return DriverRedis
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.client == nil {
		return "", false, errRedisClientUnavailable
	}
	value, err := s.client.Get(ctx, s.storageKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value string) error {
	if s.client == nil {
		return errRedisClientUnavailable
	}
	return s.client.Set(ctx, s.storageKey(key), value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return errRedisClientUnavailable
	}
	return s.client.Del(ctx, s.storageKey(key)).Err()
}

// Close releases a client the store opened from a URL. Injected clients are
// left to their owner.
func (s *redisStore) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}

func (s *redisStore) storageKey(key string) string {
	return s.prefix + ":" + key
}
