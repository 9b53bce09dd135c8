package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind identifies which of the three content item shapes a record came from.
type Kind string

const (
	KindAssignment   Kind = "assignment"
	KindMaterial     Kind = "material"
	KindAnnouncement Kind = "announcement"
)

// Kinds lists every supported kind in indexing order.
var Kinds = []Kind{KindAssignment, KindAnnouncement, KindMaterial}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAssignment:
		return KindAssignment, true
	case KindMaterial:
		return KindMaterial, true
	case KindAnnouncement:
		return KindAnnouncement, true
	}
	return "", false
}

// Course is the minimal course metadata the index needs.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// TimeOfDay is a wall-clock time. Either field may be absent.
type TimeOfDay struct {
	Hours   *int `json:"hours,omitempty"`
	Minutes *int `json:"minutes,omitempty"`
}

// Clock returns the hour and minute, defaulting a missing hour to 23 and a
// missing minute to 59. A nil receiver means end of day.
func (t *TimeOfDay) Clock() (hour, minute int) {
	hour, minute = 23, 59
	if t == nil {
		return hour, minute
	}
	if t.Hours != nil {
		hour = *t.Hours
	}
	if t.Minutes != nil {
		minute = *t.Minutes
	}
	return hour, minute
}

// Record is the normalized, indexed form of one content item for one user.
type Record struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Type        Kind            `json:"type"`
	CourseID    string          `json:"courseId"`
	CourseName  string          `json:"courseName"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CreatedTime time.Time       `json:"createdTime"`
	UpdateTime  time.Time       `json:"updateTime"`
	DueDate     *Date           `json:"dueDate,omitempty"`
	DueTime     *TimeOfDay      `json:"dueTime,omitempty"`
	Link        string          `json:"link,omitempty"`
	Keywords    []string        `json:"keywords"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Key returns the record's deterministic storage key.
func (r Record) Key() string {
	return RecordKey(r.UserID, r.Type, r.CourseID, r.ID)
}

// DueAt resolves the structured due date and time in loc.
// It reports false when the record carries no due date.
func (r Record) DueAt(loc *time.Location) (time.Time, bool) {
	if r.DueDate == nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	hour, minute := r.DueTime.Clock()
	return time.Date(r.DueDate.Year, time.Month(r.DueDate.Month), r.DueDate.Day, hour, minute, 0, 0, loc), true
}

// RecordKey builds the key a record is stored under.
func RecordKey(userID string, kind Kind, courseID, itemID string) string {
	return fmt.Sprintf("record:%s:%s:%s:%s", userID, kind, courseID, itemID)
}
