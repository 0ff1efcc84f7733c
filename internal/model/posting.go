package model

import (
	"context"
	"time"
)

// MaxSummaryLen is the upper bound (in characters) of a stored summary.
const MaxSummaryLen = 1000

// Category is a label from the fixed posting taxonomy.
type Category string

const (
	Research       Category = "Research"
	Teaching       Category = "Teaching"
	Administrative Category = "Administrative"
	Technical      Category = "Technical"
	Internship     Category = "Internship"
	Fellowship     Category = "Fellowship"
	PhD            Category = "PhD"
	General        Category = "General"

	// Unclassified marks a posting that has not been categorized yet.
	Unclassified Category = "Unclassified"
)

// Taxonomy lists every category a classifier may return, General last.
var Taxonomy = []Category{Research, Teaching, Administrative, Technical, Internship, Fellowship, PhD, General}

// Valid reports whether c is a taxonomy value or the Unclassified sentinel.
func (c Category) Valid() bool {
	if c == Unclassified {
		return true
	}
	for _, t := range Taxonomy {
		if c == t {
			return true
		}
	}
	return false
}

// NeedsClassification reports whether enrichment may overwrite the category.
func (c Category) NeedsClassification() bool {
	return c == "" || c == Unclassified
}

// NormalizeCategory maps anything outside the taxonomy to Unclassified.
func NormalizeCategory(c Category) Category {
	if c.Valid() {
		return c
	}
	return Unclassified
}

// Posting is one academic job record as persisted.
type Posting struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Organization string     `json:"university"`
	Description  string     `json:"description"`
	URL          string     `json:"url"`
	Location     string     `json:"location"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Category     Category   `json:"category"`
	Summary      *string    `json:"summary"`
	CreatedAt    time.Time  `json:"date_added"`
	Active       bool       `json:"is_active"`
}

// Enriched reports whether the posting already carries a non-empty summary.
func (p Posting) Enriched() bool {
	return p.Summary != nil && *p.Summary != ""
}

// Candidate is a raw record produced by a source adapter, before dedup.
type Candidate struct {
	Title        string
	Organization string
	Description  string
	URL          string // canonical link, natural key together with Organization
	Location     string
	Deadline     *time.Time
	Category     Category // optional adapter-supplied label
	Source       string   // adapter kind, e.g. "html"
}

// SourceFetcher produces raw candidates from one source (a careers page, a board, a file).
type SourceFetcher interface {
	FetchCandidates(ctx context.Context) ([]Candidate, error)
}

// CandidateFilter decides whether a candidate is worth ingesting.
type CandidateFilter interface {
	Match(c Candidate) bool
}

// Notifier announces newly ingested postings.
type Notifier interface {
	Notify(postings []Posting) error
}

// Classifier maps a title/description pair to a taxonomy category. It never fails.
type Classifier interface {
	Classify(ctx context.Context, title, description string) Category
}

// Summarizer produces a short synopsis of a posting. It never fails.
type Summarizer interface {
	Summarize(ctx context.Context, title, description, organization string) string
}
