package indexer

import (
	"time"

	"classroom-notifier/internal/content"
)

// SyncStats summarizes one SyncUser run.
type SyncStats struct {
	// Courses is the number of courses indexed without a fetch error.
	Courses int `json:"courses"`
	// FailedCourses is the number of courses skipped after a fetch error.
	FailedCourses int `json:"failedCourses"`
	// Items is the number of records normalized.
	Items int `json:"items"`
	// ByKind breaks Items down by content kind.
	ByKind   map[content.Kind]int `json:"byKind"`
	Duration time.Duration        `json:"duration"`
}

func newSyncStats() SyncStats {
	return SyncStats{ByKind: make(map[content.Kind]int)}
}

func (s *SyncStats) add(records []content.Record) {
	s.Courses++
	s.Items += len(records)
	for _, rec := range records {
		s.ByKind[rec.Type]++
	}
}
