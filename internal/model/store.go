package model

import "context"

// Filter selects postings. Zero-valued fields are ignored.
type Filter struct {
	ActiveOnly bool

	// exact matches
	Organization string
	URL          string
	Category     Category

	// case-insensitive substring matches
	LocationLike     string
	CategoryLike     string
	OrganizationLike string
	Search           string // title, description or summary

	MissingSummary bool
}

// Order controls the sort of Find results.
type Order int

const (
	OldestFirst Order = iota // insertion order
	NewestFirst
)

// Query is a filtered, ordered, paginated selection.
type Query struct {
	Filter Filter
	Order  Order
	Limit  int // 0 means no limit
	Skip   int
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Summary  *string
	Category *Category
	Active   *bool
}

// GroupField names a column that postings can be grouped by.
type GroupField string

const (
	GroupByCategory     GroupField = "category"
	GroupByOrganization GroupField = "organization"
)

// GroupCount is one bucket of a grouping query.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// PostingStore is the document-style collection of postings keyed by ID.
type PostingStore interface {
	// Insert stores a new posting. It returns ErrDuplicate when an active posting
	// with the same (Organization, URL) already exists.
	Insert(ctx context.Context, p Posting) error
	FindByID(ctx context.Context, id string) (Posting, error)
	Find(ctx context.Context, q Query) ([]Posting, error)
	Update(ctx context.Context, id string, patch Patch) error
	Count(ctx context.Context, f Filter) (int, error)
	// GroupCount counts postings grouped by field, highest count first.
	// A limit of 0 returns every group.
	GroupCount(ctx context.Context, field GroupField, f Filter, limit int) ([]GroupCount, error)
	Ping(ctx context.Context) error
	Close() error
}
