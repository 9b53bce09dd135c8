package messaging

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"classroom-notifier/internal/content"
)

func TestFormatReminder(t *testing.T) {
	rec := content.Record{Title: "Lab 3", CourseName: "Physics", Link: "https://x/lab3"}
	due := time.Date(2024, 3, 10, 17, 59, 0, 0, time.UTC)

	got := FormatReminder(rec, "6h", due)
	for _, want := range []string{"**Lab 3**", "Physics", "within 6h", "Sun 10 Mar 17:59 UTC", "\nhttps://x/lab3"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatReminder() = %q, missing %q", got, want)
		}
	}
}

func TestFormatNewContent(t *testing.T) {
	tests := []struct {
		name string
		rec  content.Record
		want []string
	}{
		{
			name: "material",
			rec:  content.Record{Type: content.KindMaterial, Title: "Slides", CourseName: "Math"},
			want: []string{"New material in Math", "**Slides**"},
		},
		{
			name: "announcement uses text",
			rec:  content.Record{Type: content.KindAnnouncement, Title: "Exam", Description: "Exam moved to Friday", CourseName: "Math", Link: "https://x/a"},
			want: []string{"New announcement in Math", "Exam moved to Friday", "https://x/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNewContent(tt.rec)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("FormatNewContent() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestFormatSearchResults(t *testing.T) {
	recs := make([]content.Record, 12)
	for i := range recs {
		recs[i] = content.Record{Type: content.KindAssignment, Title: fmt.Sprintf("HW %d", i+1), CourseName: "Math"}
	}
	recs[0].DueDate = &content.Date{Year: 2024, Month: 3, Day: 10}

	got := FormatSearchResults(recs, time.UTC)
	if !strings.HasPrefix(got, "Found 12 item(s):") {
		t.Errorf("header wrong: %q", got)
	}
	if !strings.Contains(got, "1. [assignment] **HW 1** (Math), due Sun 10 Mar 23:59 UTC") {
		t.Errorf("first line wrong: %q", got)
	}
	if strings.Contains(got, "HW 11") {
		t.Error("results beyond the listing cap should be summarized")
	}
	if !strings.Contains(got, "...and 2 more.") {
		t.Errorf("missing overflow note: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  héllo  ", 10); got != "héllo" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Errorf("truncate() = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText(FormatReminder(content.Record{Title: "Lab 3", CourseName: "Physics"}, "6h", time.Date(2024, 3, 10, 17, 59, 0, 0, time.UTC)))
	if strings.Contains(got, "*") {
		t.Errorf("PlainText() kept markdown markers: %q", got)
	}
	if !strings.HasPrefix(got, "Reminder: Lab 3 (Physics) is due within 6h") {
		t.Errorf("PlainText() = %q", got)
	}
}
