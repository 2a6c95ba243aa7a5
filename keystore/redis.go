package keystore

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces keys written by RedisStore.
const DefaultRedisPrefix = "thumbgen:"

// RedisStore keeps keys in Redis so several processes share one set of
// credentials.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), DefaultRedisPrefix)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(provider string) string {
	return s.prefix + KeyFor(provider)
}

func (s *RedisStore) Get(ctx context.Context, provider string) (string, error) {
	val, err := s.client.Get(ctx, s.key(provider)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, provider, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(provider), key, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, provider string) error {
	return s.client.Del(ctx, s.key(provider)).Err()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
