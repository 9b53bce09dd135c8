package content

import (
	"strings"
	"unicode"
)

const (
	// MaxKeywords caps the keywords stored on a record.
	MaxKeywords = 30
	// MaxQueryKeywords caps the keywords pulled from a user's request.
	MaxQueryKeywords = 10
	minKeywordLen    = 3
)

// stopwords are dropped at indexing time.
var stopwords = newWordSet(
	"the", "and", "for", "with", "this", "that", "from", "are", "was", "were",
	"will", "have", "has", "had", "you", "your", "yours", "our", "ours", "their",
	"they", "them", "his", "her", "hers", "its", "not", "but", "all", "can",
	"into", "onto", "about", "over", "under", "after", "before", "then", "than",
	"there", "here", "what", "when", "where", "which", "who", "whom", "why", "how",
	"also", "been", "being", "each", "any", "some", "such", "only", "just", "very",
	"more", "most", "other", "these", "those", "upon", "via", "per", "while", "would",
	"should", "could", "may", "might", "must", "shall", "does", "did", "done", "out",
	"off", "too", "yet", "nor", "both", "either", "neither", "because", "until",
	"against", "between", "through", "during", "without", "within", "along", "among",
	"across", "behind", "beyond", "him", "she", "himself", "herself", "itself",
	"themselves", "ourselves", "yourself", "myself", "mine", "let", "get", "got",
)

// queryStopwords extends stopwords with words that carry no search intent in
// natural-language requests.
var queryStopwords = stopwords.union(
	"show", "find", "please", "today", "tomorrow", "yesterday", "list", "give",
	"tell", "want", "need", "know", "check", "search", "look", "see", "display",
	"due", "upcoming", "next", "week", "month", "any", "anything", "something",
	"thanks", "thank", "hey", "hello", "help", "remind", "reminder", "latest",
	"recent", "new", "course", "class", "lesson", "posted", "post", "pending",
)

// domainKeywords are tagged on a record whenever they occur anywhere in its
// text, even inside a longer word.
var domainKeywords = []string{
	"quiz", "midterm", "final", "exam", "homework", "assignment", "project",
	"lab", "lecture", "deadline", "test", "report", "presentation", "essay",
	"reading",
}

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	set := make(wordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (s wordSet) has(w string) bool {
	_, ok := s[w]
	return ok
}

func (s wordSet) union(words ...string) wordSet {
	out := make(wordSet, len(s)+len(words))
	for w := range s {
		out[w] = struct{}{}
	}
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// ExtractKeywords derives the indexing keywords for a title and description.
// The result is ordered by first occurrence, free of duplicates and stopwords,
// and holds at most MaxKeywords entries.
func ExtractKeywords(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	keywords := make([]string, 0, MaxKeywords)
	seen := make(map[string]struct{})
	for _, token := range tokenize(text) {
		if len(token) < minKeywordLen || stopwords.has(token) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	for _, tag := range domainKeywords {
		if _, ok := seen[tag]; ok {
			continue
		}
		if strings.Contains(text, tag) {
			seen[tag] = struct{}{}
			keywords = append(keywords, tag)
		}
	}

	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	return keywords
}

// ExtractQueryKeywords pulls search terms out of a conversational request.
// It uses a broader stopword list than ExtractKeywords and never adds tags.
func ExtractQueryKeywords(text string) []string {
	keywords := make([]string, 0, MaxQueryKeywords)
	seen := make(map[string]struct{})
	for _, token := range tokenize(strings.ToLower(text)) {
		if len(token) < minKeywordLen || queryStopwords.has(token) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == MaxQueryKeywords {
			break
		}
	}
	return keywords
}

// tokenize splits lowercased text on whitespace after blanking every rune
// outside [a-z0-9].
func tokenize(lowered string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}
