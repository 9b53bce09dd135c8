package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/storage"
)

// Engine scans a user's record list and applies a Filter.
type Engine struct {
	records storage.RecordStore
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates a query engine. Due dates are resolved in loc (UTC when nil).
func NewEngine(records storage.RecordStore, loc *time.Location, m *metrics.Metrics) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		records: records,
		loc:     loc,
		metrics: m,
		logger:  slog.Default(),
	}
}

// Location returns the time zone due dates are resolved in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Search returns the user's matching records in index order, deduplicated.
// Records that cannot be loaded are logged and skipped; failing to load the
// key list itself is an error.
func (e *Engine) Search(ctx context.Context, userID string, filter Filter) ([]content.Record, error) {
	logger := contextutil.LoggerOr(ctx, e.logger)
	e.metrics.Search()

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	keys, err := e.records.ListKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list record keys: %w", err)
	}

	matched := make([]content.Record, 0)
	skipped := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := e.records.Get(ctx, key)
		if err != nil {
			skipped++
			level := slog.LevelWarn
			if errors.Is(err, storage.ErrBackendUnavailable) {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "skipping unreadable record", "key", key, "error", err)
			continue
		}
		if filter.Match(rec, e.loc) {
			matched = append(matched, rec)
		}
	}

	results := Dedup(matched)
	logger.DebugContext(ctx, "search completed", "user_id", userID, "scanned", len(keys), "skipped", skipped, "results", len(results))
	return results, nil
}
