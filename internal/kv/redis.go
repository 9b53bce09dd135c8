package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// casScript sets KEYS[1] to ARGV[3] when it is absent (ARGV[1] == "0") or
// currently equals ARGV[2] (ARGV[1] == "1").
var casScript = redis.NewScript(`
	local current = redis.call("GET", KEYS[1])
	if ARGV[1] == "0" then
		if current then
			return 0
		end
	elseif current ~= ARGV[2] then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[3])
	return 1
`)

// RedisStore implements Store and CompareAndSwapper on Redis strings.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis instance at redisURL and verifies it answers.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Client returns the underlying Redis client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Ping checks if Redis is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return value, nil
}

// Set stores value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// ListKeysByPrefix walks the keyspace with SCAN and returns matching keys, sorted.
func (s *RedisStore) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// SCAN may return a key more than once.
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// CompareAndSwap writes next only when the stored value still matches old.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, old *string, next string) (bool, error) {
	mode, expected := "0", ""
	if old != nil {
		mode, expected = "1", *old
	}
	n, err := casScript.Run(ctx, s.client, []string{key}, mode, expected, next).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to compare-and-swap key: %w", err)
	}
	return n == 1, nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob escapes characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
