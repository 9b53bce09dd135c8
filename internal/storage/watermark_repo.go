package storage

import (
	"context"
	"errors"
	"time"

	"classroom-notifier/internal/kv"
)

// WatermarkRepo persists the last-seen content timestamp per (user, course).
type WatermarkRepo struct {
	store   kv.Store
	updater *keyedUpdater
}

// NewWatermarkRepo creates a new WatermarkRepo.
func NewWatermarkRepo(store kv.Store) *WatermarkRepo {
	return &WatermarkRepo{store: store, updater: newKeyedUpdater(store)}
}

// Watermark returns the stored watermark and whether one exists.
func (r *WatermarkRepo) Watermark(ctx context.Context, userID, courseID string) (time.Time, bool, error) {
	key := WatermarkKey(userID, courseID)
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, backendErr("get "+key, err)
	}
	mark, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, malformedErr(key, err)
	}
	return mark, true, nil
}

// Advance moves the watermark forward to at. An earlier or equal at leaves
// the stored value unchanged, so the watermark never moves backward.
// A stored value that cannot be parsed is replaced.
func (r *WatermarkRepo) Advance(ctx context.Context, userID, courseID string, at time.Time) error {
	key := WatermarkKey(userID, courseID)
	_, err := r.updater.update(ctx, key, func(current *string) (string, bool, error) {
		if current != nil {
			if mark, err := time.Parse(time.RFC3339Nano, *current); err == nil && !at.After(mark) {
				return "", false, nil
			}
		}
		return at.UTC().Format(time.RFC3339Nano), true, nil
	})
	return err
}
