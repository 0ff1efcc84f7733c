package adapter

import (
	"html"
	"regexp"
	"strings"
	"time"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles double-encoded board content;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

var deadlinePrefixRegex = regexp.MustCompile(`(?i)^(closing date|application deadline|deadline|closes|apply by)\s*[:\-]?\s*`)

var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
	"Monday, 2 January 2006",
}

// parseDeadline reads a human-written closing date such as
// "Closing date: 14 March 2025". It returns nil when nothing matches.
func parseDeadline(s string) *time.Time {
	s = strings.TrimSpace(deadlinePrefixRegex.ReplaceAllString(strings.TrimSpace(s), ""))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
