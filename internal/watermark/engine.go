package watermark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/storage"
)

// CourseIndexer fetches and indexes course content.
type CourseIndexer interface {
	IndexCourse(ctx context.Context, user storage.User, course content.Course, kinds ...content.Kind) ([]content.Record, error)
}

// Store persists one watermark per user and course.
type Store interface {
	Watermark(ctx context.Context, userID, courseID string) (time.Time, bool, error)
	Advance(ctx context.Context, userID, courseID string, at time.Time) error
}

// Engine runs the new-content check for a course.
type Engine struct {
	indexer     CourseIndexer
	store       Store
	messenger   messaging.Messenger
	metrics     *metrics.Metrics
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewEngine creates a watermark engine. callTimeout bounds each message send.
func NewEngine(indexer CourseIndexer, store Store, messenger messaging.Messenger, m *metrics.Metrics, callTimeout time.Duration) *Engine {
	return &Engine{
		indexer:     indexer,
		store:       store,
		messenger:   messenger,
		metrics:     m,
		callTimeout: callTimeout,
		logger:      slog.Default(),
	}
}

// SweepCourse indexes the course's announcements and materials, sends one
// message per item newer than the watermark and then advances it. It returns
// the number of messages delivered. A failed fetch leaves the watermark alone.
func (e *Engine) SweepCourse(ctx context.Context, user storage.User, course content.Course, now time.Time) (int, error) {
	logger := contextutil.LoggerOr(ctx, e.logger).With("course_id", course.ID)

	records, err := e.indexer.IndexCourse(ctx, user, course, content.KindAnnouncement, content.KindMaterial)
	if err != nil {
		return 0, err
	}

	var mark *time.Time
	stored, ok, err := e.store.Watermark(ctx, user.ID, course.ID)
	switch {
	case errors.Is(err, storage.ErrMalformedRecord):
		logger.WarnContext(ctx, "unreadable watermark, reseeding", "error", err)
	case err != nil:
		return 0, fmt.Errorf("failed to load watermark: %w", err)
	case ok:
		mark = &stored
	}

	result := Plan(records, mark, now)
	if result.FirstRun {
		logger.InfoContext(ctx, "seeding watermark", "items", len(records), "watermark", result.Next)
	}

	sent := 0
	for _, rec := range result.Notify {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := e.send(ctx, user.Handle, messaging.FormatNewContent(rec)); err != nil {
			e.metrics.DeliveryError()
			logger.ErrorContext(ctx, "failed to send new content notification", "item_id", rec.ID, "error", err)
			continue
		}
		sent++
		e.metrics.NewContent(string(rec.Type))
	}

	if err := e.store.Advance(ctx, user.ID, course.ID, result.Next); err != nil {
		return sent, fmt.Errorf("failed to advance watermark: %w", err)
	}

	if len(result.Notify) > 0 {
		logger.InfoContext(ctx, "new content notified", "new_items", len(result.Notify), "sent", sent)
	}
	return sent, nil
}

func (e *Engine) send(ctx context.Context, handle, text string) error {
	callCtx, cancel := contextutil.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return e.messenger.Send(callCtx, handle, text)
}
