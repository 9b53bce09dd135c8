package content

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestNormalize_Assignment(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	raw := json.RawMessage(`{"id":"cw1"}`)
	item := Assignment{
		ID:            "cw1",
		Title:         "Problem Set 4",
		Description:   "Dynamic programming exercises",
		DueDate:       &Date{Year: 2024, Month: 5, Day: 10},
		DueTime:       &TimeOfDay{Hours: intPtr(23), Minutes: intPtr(59)},
		CreationTime:  created,
		AlternateLink: "https://classroom.example/c/1/a/cw1",
		Raw:           raw,
	}

	rec := Normalize("u1", Course{ID: "c1", Name: "CS101"}, item)

	if rec.Key() != "record:u1:assignment:c1:cw1" {
		t.Errorf("Key() = %q", rec.Key())
	}
	if rec.Type != KindAssignment || rec.Title != "Problem Set 4" || rec.CourseName != "CS101" {
		t.Errorf("Normalize() mapped fields incorrectly: %+v", rec)
	}
	if !rec.CreatedTime.Equal(created) || !rec.UpdateTime.Equal(created) {
		t.Errorf("Normalize() times = %v / %v, want %v", rec.CreatedTime, rec.UpdateTime, created)
	}
	if rec.Link != item.AlternateLink {
		t.Errorf("Normalize() link = %q, want alternate link fallback", rec.Link)
	}
	if string(rec.Raw) != string(raw) {
		t.Errorf("Normalize() raw = %s, want passthrough", rec.Raw)
	}
	due, ok := rec.DueAt(time.UTC)
	if !ok || !due.Equal(time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)) {
		t.Errorf("DueAt() = %v, %v", due, ok)
	}
	if len(rec.Keywords) == 0 || rec.Keywords[0] != "problem" {
		t.Errorf("Normalize() keywords = %v", rec.Keywords)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	course := Course{ID: "c1", Name: "Biology"}
	tests := []struct {
		name      string
		item      SourceItem
		wantTitle string
		wantKind  Kind
	}{
		{name: "assignment", item: Assignment{ID: "a"}, wantTitle: "Untitled", wantKind: KindAssignment},
		{name: "announcement", item: Announcement{ID: "b"}, wantTitle: "Untitled Announcement", wantKind: KindAnnouncement},
		{name: "material", item: Material{ID: "c", Title: "  "}, wantTitle: "Untitled Material", wantKind: KindMaterial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize("u1", course, tt.item)
			if rec.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", rec.Title, tt.wantTitle)
			}
			if rec.Type != tt.wantKind {
				t.Errorf("Type = %q, want %q", rec.Type, tt.wantKind)
			}
			if rec.DueDate != nil || rec.DueTime != nil {
				t.Errorf("due fields should stay nil, got %v %v", rec.DueDate, rec.DueTime)
			}
			if rec.Link != "" {
				t.Errorf("Link = %q, want empty", rec.Link)
			}
			if _, ok := rec.DueAt(time.UTC); ok {
				t.Error("DueAt() should report no due date")
			}
		})
	}
}

func TestNormalize_Announcement(t *testing.T) {
	text := "\n  Field trip moved to Friday\nBring your lab notebook."
	rec := Normalize("u1", Course{ID: "c1"}, Announcement{ID: "an1", Text: text, Link: "https://x/y"})

	if rec.Title != "Field trip moved to Friday" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.Description != text {
		t.Errorf("Description = %q, want original text", rec.Description)
	}
	if rec.Link != "https://x/y" {
		t.Errorf("Link = %q, want explicit link", rec.Link)
	}

	long := strings.Repeat("a", 150)
	rec = Normalize("u1", Course{ID: "c1"}, Announcement{ID: "an2", Text: long})
	if got := len([]rune(rec.Title)); got != announcementTitleRunes+1 {
		t.Errorf("long announcement title has %d runes, want %d", got, announcementTitleRunes+1)
	}
}

func TestNormalize_MaterialUsesUpdateTime(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	rec := Normalize("u1", Course{ID: "c1"}, Material{ID: "m1", Title: "Slides", CreationTime: created, UpdateTime: updated})
	if !rec.CreatedTime.Equal(updated) {
		t.Errorf("CreatedTime = %v, want update time %v", rec.CreatedTime, updated)
	}

	rec = Normalize("u1", Course{ID: "c1"}, Material{ID: "m2", Title: "Slides", CreationTime: created})
	if !rec.CreatedTime.Equal(created) {
		t.Errorf("CreatedTime = %v, want creation fallback %v", rec.CreatedTime, created)
	}
}

func TestTimeOfDay_Clock(t *testing.T) {
	tests := []struct {
		name       string
		tod        *TimeOfDay
		wantHour   int
		wantMinute int
	}{
		{name: "nil means end of day", tod: nil, wantHour: 23, wantMinute: 59},
		{name: "hour only", tod: &TimeOfDay{Hours: intPtr(9)}, wantHour: 9, wantMinute: 59},
		{name: "minute only", tod: &TimeOfDay{Minutes: intPtr(30)}, wantHour: 23, wantMinute: 30},
		{name: "explicit midnight", tod: &TimeOfDay{Hours: intPtr(0), Minutes: intPtr(0)}, wantHour: 0, wantMinute: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := tt.tod.Clock()
			if h != tt.wantHour || m != tt.wantMinute {
				t.Errorf("Clock() = %d:%d, want %d:%d", h, m, tt.wantHour, tt.wantMinute)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind(" Assignment "); !ok || k != KindAssignment {
		t.Errorf("ParseKind() = %v, %v", k, ok)
	}
	if _, ok := ParseKind("quiz"); ok {
		t.Error("ParseKind(quiz) should fail")
	}
}
