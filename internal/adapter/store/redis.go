package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements port.RecordStore on Redis hashes.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and returns a store instance.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client (used in tests).
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Get reads a plain string key. Absent keys yield "".
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// SetNX sets key only if absent, reporting whether the write happened.
func (s *RedisStore) SetNX(ctx context.Context, key, value string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

// Incr atomically increments a counter key.
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

// GetField reads one hash field. Absent records or fields yield "".
func (s *RedisStore) GetField(ctx context.Context, key, field string) (string, error) {
	v, err := s.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("hget %s %s: %w", key, field, err)
	}
	return v, nil
}

// GetAll reads a whole record hash.
func (s *RedisStore) GetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return m, nil
}

// SetFields writes hash fields in one operation.
func (s *RedisStore) SetFields(ctx context.Context, key string, fields map[string]any) error {
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// DeleteField removes hash fields.
func (s *RedisStore) DeleteField(ctx context.Context, key string, fields ...string) error {
	if err := s.rdb.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", key, err)
	}
	return nil
}

// Delete removes whole keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Keys returns all keys matching pattern.
func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", pattern, err)
	}
	return keys, nil
}

// MultiGetAll reads several hashes in one pipelined round trip,
// preserving key order. Absent records come back as empty maps.
func (s *RedisStore) MultiGetAll(ctx context.Context, keys []string) ([]map[string]string, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pipeline hgetall: %w", err)
	}

	records := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		records[i] = cmd.Val()
	}
	return records, nil
}
