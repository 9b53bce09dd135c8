// Package watermark detects announcements and materials published since the
// last sweep and announces each of them once.
package watermark

import (
	"slices"
	"time"

	"classroom-notifier/internal/content"
)

// Result is the outcome of Plan.
type Result struct {
	// Notify holds the items newer than the watermark, newest first.
	Notify []content.Record
	// Next is the watermark to store after notifying. It is never before the
	// previous mark.
	Next time.Time
	// FirstRun is set when there was no previous mark.
	FirstRun bool
}

// Plan compares items against mark. Without a mark nothing is notified and
// the watermark is seeded with the newest update time, or now when there are
// no items. With a mark, items strictly newer than it are notified.
func Plan(items []content.Record, mark *time.Time, now time.Time) Result {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b content.Record) int {
		return UpdatedAt(b).Compare(UpdatedAt(a))
	})

	var newest time.Time
	if len(sorted) > 0 {
		newest = UpdatedAt(sorted[0])
	}

	if mark == nil {
		next := newest
		if len(sorted) == 0 || next.IsZero() {
			next = now
		}
		return Result{Next: next, FirstRun: true}
	}

	var notify []content.Record
	for _, rec := range sorted {
		// Sorted newest first, so everything after the first old item is old too.
		if !UpdatedAt(rec).After(*mark) {
			break
		}
		notify = append(notify, rec)
	}

	next := *mark
	if newest.After(next) {
		next = newest
	}
	return Result{Notify: notify, Next: next}
}

// UpdatedAt is the time the item was last published or edited.
func UpdatedAt(rec content.Record) time.Time {
	if !rec.UpdateTime.IsZero() {
		return rec.UpdateTime
	}
	return rec.CreatedTime
}
