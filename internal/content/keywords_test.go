package content

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        []string
	}{
		{
			name:  "empty input",
			title: "",
			want:  []string{},
		},
		{
			name:        "drops short tokens and stopwords",
			title:       "The Essay on AI",
			description: "Write it for the class",
			want:        []string{"essay", "write", "class"},
		},
		{
			name:        "punctuation becomes whitespace",
			title:       "Lab#3: Sorting-algorithms!",
			description: "",
			want:        []string{"lab", "sorting", "algorithms"},
		},
		{
			name:        "preserves first occurrence order without duplicates",
			title:       "Graph graph GRAPH traversal",
			description: "traversal of graph",
			want:        []string{"graph", "traversal"},
		},
		{
			name:        "appends domain tags found as substrings",
			title:       "Weekly homeworks",
			description: "Prepare for the midterms",
			want:        []string{"weekly", "homeworks", "prepare", "midterms", "midterm", "homework"},
		},
		{
			name:        "domain tag already present is not repeated",
			title:       "Quiz review",
			description: "quiz",
			want:        []string{"quiz", "review"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.title, tt.description)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractKeywords_Properties(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		b.WriteString("word")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteByte(byte('a' + i%26))
		b.WriteString(" the and with ")
	}
	title := "Final project presentation"
	description := b.String()

	first := ExtractKeywords(title, description)
	second := ExtractKeywords(title, description)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("ExtractKeywords() not deterministic: %v vs %v", first, second)
	}
	if len(first) > MaxKeywords {
		t.Errorf("ExtractKeywords() returned %d keywords, want <= %d", len(first), MaxKeywords)
	}
	seen := make(map[string]bool)
	for _, kw := range first {
		if stopwords.has(kw) {
			t.Errorf("ExtractKeywords() returned stopword %q", kw)
		}
		if seen[kw] {
			t.Errorf("ExtractKeywords() returned duplicate %q", kw)
		}
		seen[kw] = true
	}
}

func TestExtractQueryKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "strips request phrasing",
			text: "Please show me the calculus homework due tomorrow",
			want: []string{"calculus", "homework"},
		},
		{
			name: "no domain tags are appended",
			text: "find midterms",
			want: []string{"midterms"},
		},
		{
			name: "empty",
			text: "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractQueryKeywords(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractQueryKeywords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractQueryKeywords_Cap(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	got := ExtractQueryKeywords(text)
	if len(got) != MaxQueryKeywords {
		t.Fatalf("ExtractQueryKeywords() returned %d keywords, want %d", len(got), MaxQueryKeywords)
	}
	if got[0] != "alpha" || got[9] != "juliet" {
		t.Errorf("ExtractQueryKeywords() = %v, want the first ten tokens", got)
	}
}
