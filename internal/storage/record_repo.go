package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_record_store.go -package=mocks classroom-notifier/internal/storage RecordStore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/kv"
)

// RecordStore defines the index storage operations for content records.
type RecordStore interface {
	// Put stores rec under its deterministic key, replacing any previous version.
	Put(ctx context.Context, rec content.Record) error
	// Get loads the record stored under key.
	// Returns ErrNotFound if absent and ErrMalformedRecord if it cannot be decoded.
	Get(ctx context.Context, key string) (content.Record, error)
	// ListKeys returns the user's record keys in indexing order.
	ListKeys(ctx context.Context, userID string) ([]string, error)
	// AppendKeyIfAbsent adds key to the user's list unless it is already there.
	// It reports whether the list changed.
	AppendKeyIfAbsent(ctx context.Context, userID, key string) (bool, error)
}

// RecordRepo implements RecordStore on a kv.Store.
type RecordRepo struct {
	store   kv.Store
	updater *keyedUpdater
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(store kv.Store) *RecordRepo {
	return &RecordRepo{store: store, updater: newKeyedUpdater(store)}
}

// Put stores rec under its deterministic key (last write wins).
func (r *RecordRepo) Put(ctx context.Context, rec content.Record) error {
	if rec.UserID == "" || rec.ID == "" {
		return fmt.Errorf("record is missing user or item id")
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	key := rec.Key()
	if err := r.store.Set(ctx, key, string(body)); err != nil {
		return backendErr("put "+key, err)
	}
	return nil
}

// Get loads the record stored under key.
func (r *RecordRepo) Get(ctx context.Context, key string) (content.Record, error) {
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return content.Record{}, ErrNotFound
	}
	if err != nil {
		return content.Record{}, backendErr("get "+key, err)
	}

	var rec content.Record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return content.Record{}, malformedErr(key, err)
	}
	return rec, nil
}

// ListKeys returns the user's record keys. A user with nothing indexed has an empty list.
func (r *RecordRepo) ListKeys(ctx context.Context, userID string) ([]string, error) {
	listKey := RecordListKey(userID)
	value, err := r.store.Get(ctx, listKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, backendErr("get "+listKey, err)
	}
	return decodeList(listKey, &value)
}

// AppendKeyIfAbsent appends key to the user's record-key list once.
func (r *RecordRepo) AppendKeyIfAbsent(ctx context.Context, userID, key string) (bool, error) {
	listKey := RecordListKey(userID)
	return r.updater.update(ctx, listKey, func(current *string) (string, bool, error) {
		keys, err := decodeList(listKey, current)
		if err != nil {
			return "", false, err
		}
		if slices.Contains(keys, key) {
			return "", false, nil
		}
		body, err := json.Marshal(append(keys, key))
		if err != nil {
			return "", false, fmt.Errorf("failed to encode key list: %w", err)
		}
		return string(body), true, nil
	})
}

// decodeList decodes a JSON string array; nil means an empty list.
func decodeList(key string, value *string) ([]string, error) {
	if value == nil {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(*value), &list); err != nil {
		return nil, malformedErr(key, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
