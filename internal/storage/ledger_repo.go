package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"classroom-notifier/internal/kv"
)

// LedgerRepo persists the reminder thresholds already sent per (item, user).
type LedgerRepo struct {
	store   kv.Store
	updater *keyedUpdater
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(store kv.Store) *LedgerRepo {
	return &LedgerRepo{store: store, updater: newKeyedUpdater(store)}
}

// Ledger returns the threshold labels already notified, empty if none.
func (r *LedgerRepo) Ledger(ctx context.Context, itemID, userID string) ([]string, error) {
	key := LedgerKey(itemID, userID)
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, backendErr("get "+key, err)
	}
	return decodeList(key, &value)
}

// RecordSent adds label to the ledger. Recording the same label twice is a no-op.
func (r *LedgerRepo) RecordSent(ctx context.Context, itemID, userID, label string) error {
	key := LedgerKey(itemID, userID)
	_, err := r.updater.update(ctx, key, func(current *string) (string, bool, error) {
		labels, err := decodeList(key, current)
		if err != nil {
			return "", false, err
		}
		if slices.Contains(labels, label) {
			return "", false, nil
		}
		body, err := json.Marshal(append(labels, label))
		if err != nil {
			return "", false, fmt.Errorf("failed to encode ledger: %w", err)
		}
		return string(body), true, nil
	})
	return err
}
