package filter

import (
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

// Criteria configures a KeywordFilter. Every list is matched as a
// case-insensitive substring; empty include lists match everything.
type Criteria struct {
	TitleKeywords        []string
	TitleExcludeKeywords []string
	Locations            []string
	ExcludeLocations     []string
}

// KeywordFilter matches candidates whose title contains any title keyword and
// whose location contains any location keyword, unless an exclude keyword
// hits first.
type KeywordFilter struct {
	titleKeywords        []string
	titleExcludeKeywords []string
	locations            []string
	excludeLocations     []string
}

// NewKeywordFilter lower-cases the criteria once so Match only lowers the
// candidate's fields.
func NewKeywordFilter(c Criteria) *KeywordFilter {
	return &KeywordFilter{
		titleKeywords:        lowerAll(c.TitleKeywords),
		titleExcludeKeywords: lowerAll(c.TitleExcludeKeywords),
		locations:            lowerAll(c.Locations),
		excludeLocations:     lowerAll(c.ExcludeLocations),
	}
}

// Match reports whether c passes the filter. Exclusions win over inclusions.
func (f *KeywordFilter) Match(c model.Candidate) bool {
	titleLower := strings.ToLower(c.Title)
	locationLower := strings.ToLower(c.Location)

	if containsAny(titleLower, f.titleExcludeKeywords) {
		return false
	}
	if containsAny(locationLower, f.excludeLocations) {
		return false
	}
	if len(f.titleKeywords) > 0 && !containsAny(titleLower, f.titleKeywords) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(locationLower, f.locations) {
		return false
	}
	return true
}

// MatchPosting applies the same rules to a stored posting. The audit view
// uses it to split postings that pass the configured filters.
func (f *KeywordFilter) MatchPosting(p model.Posting) bool {
	return f.Match(model.Candidate{Title: p.Title, Location: p.Location})
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
