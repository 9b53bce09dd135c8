package storage

import (
	"context"
	"errors"
	"sync"

	"classroom-notifier/internal/kv"
)

// maxUpdateAttempts bounds compare-and-swap retries for a single key.
const maxUpdateAttempts = 5

// mutateFunc computes the next value from the current one (nil when absent).
// Returning write=false leaves the key untouched.
type mutateFunc func(current *string) (next string, write bool, err error)

// keyedUpdater serializes read-modify-write cycles per key inside the process
// and uses compare-and-swap when the backend supports it.
type keyedUpdater struct {
	store kv.Store
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedUpdater(store kv.Store) *keyedUpdater {
	return &keyedUpdater{store: store, locks: make(map[string]*keyLock)}
}

func (u *keyedUpdater) lock(key string) func() {
	u.mu.Lock()
	l, ok := u.locks[key]
	if !ok {
		l = &keyLock{}
		u.locks[key] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(u.locks, key)
		}
		u.mu.Unlock()
	}
}

func (u *keyedUpdater) read(ctx context.Context, key string) (*string, error) {
	value, err := u.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, backendErr("get "+key, err)
	}
	return &value, nil
}

// update applies mutate to key and reports whether a write happened.
//
// Without compare-and-swap the value is re-fetched immediately before the
// write and the mutation recomputed if it changed. Another process can still
// write between that re-fetch and Set; for the record-key list this yields at
// worst a duplicate entry.
func (u *keyedUpdater) update(ctx context.Context, key string, mutate mutateFunc) (bool, error) {
	unlock := u.lock(key)
	defer unlock()

	cas, hasCAS := u.store.(kv.CompareAndSwapper)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		current, err := u.read(ctx, key)
		if err != nil {
			return false, err
		}
		next, write, err := mutate(current)
		if err != nil || !write {
			return false, err
		}

		if hasCAS {
			ok, err := cas.CompareAndSwap(ctx, key, current, next)
			if err != nil {
				return false, backendErr("compare-and-swap "+key, err)
			}
			if ok {
				return true, nil
			}
			continue
		}

		again, err := u.read(ctx, key)
		if err != nil {
			return false, err
		}
		if !sameValue(current, again) {
			continue
		}
		if err := u.store.Set(ctx, key, next); err != nil {
			return false, backendErr("set "+key, err)
		}
		return true, nil
	}
	return false, ErrConflict
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
