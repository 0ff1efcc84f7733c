package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/amishk599/acadjobs/internal/model"
)

// MemoryStore is an in-process PostingStore used in dry-run mode and tests.
// Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	postings []model.Posting // insertion order
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Insert(_ context.Context, p model.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.postings {
		if existing.ID == p.ID {
			return model.ErrDuplicate
		}
		if p.Active && existing.Active && existing.Organization == p.Organization && existing.URL == p.URL {
			return model.ErrDuplicate
		}
	}
	s.postings = append(s.postings, clonePosting(p))
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (model.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.postings {
		if p.ID == id {
			return clonePosting(p), nil
		}
	}
	return model.Posting{}, model.ErrNotFound
}

func (s *MemoryStore) Find(_ context.Context, q model.Query) ([]model.Posting, error) {
	s.mu.RLock()
	matched := s.matching(q.Filter)
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Order == model.NewestFirst {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if q.Order == model.NewestFirst {
		// equal timestamps: later inserts first
		sortNewestStable(matched)
	}

	if q.Skip >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Skip:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch model.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.postings {
		if s.postings[i].ID != id {
			continue
		}
		if patch.Active != nil && *patch.Active && !s.postings[i].Active && s.activeKeyTaken(i) {
			return model.ErrDuplicate
		}
		if patch.Summary != nil {
			v := *patch.Summary
			s.postings[i].Summary = &v
		}
		if patch.Category != nil {
			s.postings[i].Category = *patch.Category
		}
		if patch.Active != nil {
			s.postings[i].Active = *patch.Active
		}
		return nil
	}
	return model.ErrNotFound
}

// activeKeyTaken reports whether another active posting shares the
// (organization, url) key of s.postings[i]. Callers hold s.mu.
func (s *MemoryStore) activeKeyTaken(i int) bool {
	p := s.postings[i]
	for j, other := range s.postings {
		if j != i && other.Active && other.Organization == p.Organization && other.URL == p.URL {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Count(_ context.Context, f model.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(f)), nil
}

func (s *MemoryStore) GroupCount(_ context.Context, field model.GroupField, f model.Filter, limit int) ([]model.GroupCount, error) {
	s.mu.RLock()
	matched := s.matching(f)
	s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range matched {
		switch field {
		case model.GroupByCategory:
			counts[string(p.Category)]++
		case model.GroupByOrganization:
			counts[p.Organization]++
		default:
			return nil, fmt.Errorf("unsupported group field %q", field)
		}
	}

	out := make([]model.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }

// matching must be called with s.mu held.
func (s *MemoryStore) matching(f model.Filter) []model.Posting {
	var out []model.Posting
	for _, p := range s.postings {
		if matchesFilter(p, f) {
			out = append(out, clonePosting(p))
		}
	}
	return out
}

func matchesFilter(p model.Posting, f model.Filter) bool {
	if f.ActiveOnly && !p.Active {
		return false
	}
	if f.Organization != "" && p.Organization != f.Organization {
		return false
	}
	if f.URL != "" && p.URL != f.URL {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.LocationLike != "" && !containsFold(p.Location, f.LocationLike) {
		return false
	}
	if f.CategoryLike != "" && !containsFold(string(p.Category), f.CategoryLike) {
		return false
	}
	if f.OrganizationLike != "" && !containsFold(p.Organization, f.OrganizationLike) {
		return false
	}
	if f.Search != "" {
		summary := ""
		if p.Summary != nil {
			summary = *p.Summary
		}
		if !containsFold(p.Title, f.Search) && !containsFold(p.Description, f.Search) && !containsFold(summary, f.Search) {
			return false
		}
	}
	if f.MissingSummary && p.Enriched() {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortNewestStable reverses runs of equal timestamps so that, like the SQL
// stores, ties are broken by most recent insertion.
func sortNewestStable(ps []model.Posting) {
	for i := 0; i < len(ps); {
		j := i + 1
		for j < len(ps) && ps[j].CreatedAt.Equal(ps[i].CreatedAt) {
			j++
		}
		for l, r := i, j-1; l < r; l, r = l+1, r-1 {
			ps[l], ps[r] = ps[r], ps[l]
		}
		i = j
	}
}

func clonePosting(p model.Posting) model.Posting {
	if p.Summary != nil {
		v := *p.Summary
		p.Summary = &v
	}
	if p.Deadline != nil {
		v := *p.Deadline
		p.Deadline = &v
	}
	return p
}
