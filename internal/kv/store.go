// Package kv defines the key-value backend the index is persisted in and
// ships SQLite, Redis and in-memory implementations of it.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// Store is the minimal key-value contract the index relies on.
// Implementations must offer read-after-write consistency on a single key.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// ListKeysByPrefix returns every key starting with prefix, sorted.
	ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error)
}

// CompareAndSwapper is implemented by backends that can update a key atomically.
type CompareAndSwapper interface {
	// CompareAndSwap stores next under key only if the current value equals *old,
	// or, when old is nil, only if the key is absent. It reports whether the
	// write happened.
	CompareAndSwap(ctx context.Context, key string, old *string, next string) (bool, error)
}
