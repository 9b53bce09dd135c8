package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"classroom-notifier/internal/kv"
)

// ErrSweepInProgress is returned when another sweep holds the run-lock.
var ErrSweepInProgress = errors.New("sweep already in progress")

// ReleaseFunc gives up a held run-lock.
type ReleaseFunc func(ctx context.Context) error

// Locker guards against overlapping sweeps.
type Locker interface {
	// Acquire takes the run-lock or fails with ErrSweepInProgress.
	Acquire(ctx context.Context) (ReleaseFunc, error)
}

// LocalLocker is a run-lock for a single process.
type LocalLocker struct {
	mu sync.Mutex
}

// NewLocalLocker creates an in-process run-lock.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

// Acquire takes the lock without waiting.
func (l *LocalLocker) Acquire(_ context.Context) (ReleaseFunc, error) {
	if !l.mu.TryLock() {
		return nil, ErrSweepInProgress
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker is a run-lock shared by every process using the same Redis.
// The lock expires after ttl so a crashed sweep cannot hold it forever.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker creates a Redis-backed run-lock stored under key.
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

// Acquire sets the lock key with a fresh owner token if it is absent.
func (l *RedisLocker) Acquire(ctx context.Context) (ReleaseFunc, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run-lock: %w", err)
	}
	if !ok {
		return nil, ErrSweepInProgress
	}

	return func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int64()
		if err != nil {
			return fmt.Errorf("failed to release run-lock: %w", err)
		}
		if deleted != 1 {
			return fmt.Errorf("run-lock %s expired before release", l.key)
		}
		return nil
	}, nil
}

// LeaseStore is a key-value backend with atomic compare-and-swap.
type LeaseStore interface {
	kv.Store
	kv.CompareAndSwapper
}

type lease struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StoreLocker is a run-lock kept as a lease in the index store, shared by
// every process opening the same database. An expired lease is taken over.
// Release writes an empty value since the store has no delete.
type StoreLocker struct {
	store LeaseStore
	key   string
	ttl   time.Duration
	now   func() time.Time
}

// NewStoreLocker creates a lease-based run-lock stored under key.
func NewStoreLocker(store LeaseStore, key string, ttl time.Duration) *StoreLocker {
	return &StoreLocker{store: store, key: key, ttl: ttl, now: time.Now}
}

// Acquire writes a fresh lease if the key is absent, released or expired.
func (l *StoreLocker) Acquire(ctx context.Context) (ReleaseFunc, error) {
	current, err := l.store.Get(ctx, l.key)
	var old *string
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read run-lock: %w", err)
	default:
		if current != "" {
			var held lease
			if json.Unmarshal([]byte(current), &held) == nil && l.now().Before(held.ExpiresAt) {
				return nil, ErrSweepInProgress
			}
		}
		old = &current
	}

	mine, err := json.Marshal(lease{Owner: uuid.New().String(), ExpiresAt: l.now().Add(l.ttl).UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode run-lock: %w", err)
	}
	token := string(mine)
	ok, err := l.store.CompareAndSwap(ctx, l.key, old, token)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run-lock: %w", err)
	}
	if !ok {
		return nil, ErrSweepInProgress
	}

	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			ok, err := l.store.CompareAndSwap(ctx, l.key, &token, "")
			switch {
			case err != nil:
				releaseErr = fmt.Errorf("failed to release run-lock: %w", err)
			case !ok:
				releaseErr = fmt.Errorf("run-lock %s expired before release", l.key)
			}
		})
		return releaseErr
	}, nil
}
