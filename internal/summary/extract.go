// Package summary implements the deterministic extractive summary used when no
// generated summary is available.
package summary

import (
	"strings"
	"unicode/utf8"

	"github.com/amishk599/acadjobs/internal/model"
)

const (
	// TruncateLen is the cut-off for single-sentence descriptions.
	TruncateLen = 200
	// Ellipsis marks a truncated summary.
	Ellipsis = "..."

	sentenceBoundary = ". "
	emptyFallback    = "No description available."
)

// Extract returns the first two sentences of description, or the description
// truncated to TruncateLen characters. The result is never empty: a blank
// description falls back to the title.
func Extract(title, description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		if t := strings.TrimSpace(title); t != "" {
			return Clamp(t)
		}
		return emptyFallback
	}

	if sentences := splitSentences(description); len(sentences) >= 2 {
		joined := strings.Join(sentences[:2], sentenceBoundary)
		return Clamp(strings.TrimSuffix(joined, ".") + ".")
	}

	return Truncate(description, TruncateLen)
}

// splitSentences splits on sentenceBoundary and drops pieces made only of
// whitespace and periods.
func splitSentences(s string) []string {
	var out []string
	for _, piece := range strings.Split(s, sentenceBoundary) {
		piece = strings.TrimSpace(piece)
		if strings.Trim(piece, ". ") == "" {
			continue
		}
		out = append(out, piece)
	}
	return out
}

// Truncate cuts s to n characters and appends Ellipsis when it was longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + Ellipsis
}

// Clamp bounds s to model.MaxSummaryLen characters, ellipsis included.
func Clamp(s string) string {
	if utf8.RuneCountInString(s) <= model.MaxSummaryLen {
		return s
	}
	return Truncate(s, model.MaxSummaryLen-len(Ellipsis))
}
