package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classroom-notifier/internal/classroom"
	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/storage"
)

// Pipeline pulls content from the source, normalizes it and writes it to the index.
type Pipeline struct {
	source      classroom.Source
	records     storage.RecordStore
	metrics     *metrics.Metrics
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewPipeline creates a new indexing pipeline. callTimeout bounds each call
// to the content source; zero means no bound.
func NewPipeline(source classroom.Source, records storage.RecordStore, m *metrics.Metrics, callTimeout time.Duration) *Pipeline {
	return &Pipeline{
		source:      source,
		records:     records,
		metrics:     m,
		callTimeout: callTimeout,
		logger:      slog.Default(),
	}
}

// IndexItems normalizes items and stores each record. A record that fails to
// store is logged and counted, and indexing moves on to the next item.
// All normalized records are returned whether or not they were stored.
// The only error returned is context cancellation.
func (p *Pipeline) IndexItems(ctx context.Context, userID string, course content.Course, items []content.SourceItem) ([]content.Record, int, error) {
	logger := contextutil.LoggerOr(ctx, p.logger)

	records := make([]content.Record, 0, len(items))
	failed := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return records, failed, err
		}

		rec := content.Normalize(userID, course, item)
		records = append(records, rec)

		if err := p.store(ctx, rec); err != nil {
			failed++
			p.metrics.IndexError()
			logger.ErrorContext(ctx, "failed to index item", "key", rec.Key(), "error", err)
			continue
		}
		p.metrics.Indexed(string(rec.Type))
	}
	return records, failed, nil
}

func (p *Pipeline) store(ctx context.Context, rec content.Record) error {
	if err := p.records.Put(ctx, rec); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	if _, err := p.records.AppendKeyIfAbsent(ctx, rec.UserID, rec.Key()); err != nil {
		return fmt.Errorf("failed to append record key: %w", err)
	}
	return nil
}

// IndexCourse fetches and indexes the given kinds of a course, all kinds when
// none are named. A failed fetch aborts the course so callers never act on a
// partial view of it.
func (p *Pipeline) IndexCourse(ctx context.Context, user storage.User, course content.Course, kinds ...content.Kind) ([]content.Record, error) {
	logger := contextutil.LoggerOr(ctx, p.logger)
	if len(kinds) == 0 {
		kinds = content.Kinds
	}

	var all []content.Record
	failed := 0
	for _, kind := range kinds {
		items, err := p.listItems(ctx, user, course.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s for course %s: %w", kind, course.ID, err)
		}

		records, n, err := p.IndexItems(ctx, user.ID, course, items)
		if err != nil {
			return nil, err
		}
		failed += n
		all = append(all, records...)
	}

	logger.DebugContext(ctx, "indexed course", "course_id", course.ID, "items", len(all), "failed", failed)
	return all, nil
}

func (p *Pipeline) listItems(ctx context.Context, user storage.User, courseID string, kind content.Kind) ([]content.SourceItem, error) {
	callCtx, cancel := contextutil.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return p.source.ListItems(callCtx, user, courseID, kind)
}

// SyncUser indexes every course of the user, as done on login.
// Course failures are logged and skipped; a rejected credential stops the sync.
func (p *Pipeline) SyncUser(ctx context.Context, user storage.User) (SyncStats, error) {
	logger := contextutil.LoggerOr(ctx, p.logger).With("user_id", user.ID)
	ctx = contextutil.WithLogger(ctx, logger)
	start := time.Now()

	callCtx, cancel := contextutil.WithTimeout(ctx, p.callTimeout)
	courses, err := p.source.ListCourses(callCtx, user)
	cancel()
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to list courses: %w", err)
	}

	logger.InfoContext(ctx, "starting sync", "courses", len(courses))

	stats := newSyncStats()
	for _, course := range courses {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		records, err := p.IndexCourse(ctx, user, course)
		if err != nil {
			if errors.Is(err, classroom.ErrMissingCredential) || errors.Is(err, context.Canceled) {
				return stats, err
			}
			stats.FailedCourses++
			logger.ErrorContext(ctx, "failed to sync course", "course_id", course.ID, "error", err)
			continue
		}
		stats.add(records)
	}
	stats.Duration = time.Since(start)

	logger.InfoContext(ctx, "sync completed", "courses", stats.Courses, "items", stats.Items, "failed_courses", stats.FailedCourses, "duration", stats.Duration)
	return stats, nil
}
