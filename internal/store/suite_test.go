package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func posting(id, org, url string, minutes int) model.Posting {
	return model.Posting{
		ID:           id,
		Title:        "Research Fellow " + id,
		Organization: org,
		Description:  "Work on " + id,
		URL:          url,
		Location:     "London, UK",
		Category:     model.Research,
		CreatedAt:    baseTime.Add(time.Duration(minutes) * time.Minute),
		Active:       true,
	}
}

func strPtr(s string) *string { return &s }

// runStoreSuite exercises the PostingStore contract against any implementation.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) model.PostingStore) {
	ctx := context.Background()

	t.Run("InsertThenFindByID", func(t *testing.T) {
		s := newStore(t)
		p := posting("a", "Oxford", "https://ox.ac.uk/1", 0)
		deadline := baseTime.Add(72 * time.Hour)
		p.Deadline = &deadline
		if err := s.Insert(ctx, p); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		got, err := s.FindByID(ctx, "a")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Title != p.Title || got.Organization != "Oxford" || got.URL != p.URL {
			t.Errorf("got %+v", got)
		}
		if !got.CreatedAt.Equal(p.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
		}
		if got.Deadline == nil || !got.Deadline.Equal(deadline) {
			t.Errorf("Deadline = %v, want %v", got.Deadline, deadline)
		}
		if got.Summary != nil {
			t.Errorf("Summary = %q, want nil", *got.Summary)
		}
		if !got.Active {
			t.Error("expected posting to be active")
		}
	})

	t.Run("FindByIDUnknown", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.FindByID(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("DuplicateActiveOrgURL", func(t *testing.T) {
		s := newStore(t)
		if err := s.Insert(ctx, posting("a", "Oxford", "https://ox.ac.uk/1", 0)); err != nil {
			t.Fatalf("first Insert: %v", err)
		}
		err := s.Insert(ctx, posting("b", "Oxford", "https://ox.ac.uk/1", 1))
		if !errors.Is(err, model.ErrDuplicate) {
			t.Fatalf("second Insert err = %v, want ErrDuplicate", err)
		}

		// same URL at a different organization is a different posting
		if err := s.Insert(ctx, posting("c", "Cambridge", "https://ox.ac.uk/1", 2)); err != nil {
			t.Fatalf("Insert other org: %v", err)
		}
		n, err := s.Count(ctx, model.Filter{})
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 2 {
			t.Errorf("Count = %d, want 2", n)
		}
	})

	t.Run("InactiveDoesNotBlockReinsert", func(t *testing.T) {
		s := newStore(t)
		if err := s.Insert(ctx, posting("a", "Oxford", "https://ox.ac.uk/1", 0)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		inactive := false
		if err := s.Update(ctx, "a", model.Patch{Active: &inactive}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if err := s.Insert(ctx, posting("b", "Oxford", "https://ox.ac.uk/1", 1)); err != nil {
			t.Fatalf("reinsert after deactivation: %v", err)
		}
		n, _ := s.Count(ctx, model.Filter{ActiveOnly: true})
		if n != 1 {
			t.Errorf("active Count = %d, want 1", n)
		}
	})

	t.Run("ReactivationRespectsActiveKey", func(t *testing.T) {
		s := newStore(t)
		if err := s.Insert(ctx, posting("a", "Oxford", "https://ox.ac.uk/1", 0)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		inactive, active := false, true
		if err := s.Update(ctx, "a", model.Patch{Active: &inactive}); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		if err := s.Insert(ctx, posting("b", "Oxford", "https://ox.ac.uk/1", 1)); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		if err := s.Update(ctx, "a", model.Patch{Active: &active}); !errors.Is(err, model.ErrDuplicate) {
			t.Fatalf("reactivate = %v, want ErrDuplicate", err)
		}
		got, err := s.FindByID(ctx, "a")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Active {
			t.Error("a was reactivated despite the active duplicate")
		}
		if n, _ := s.Count(ctx, model.Filter{ActiveOnly: true}); n != 1 {
			t.Errorf("active Count = %d, want 1", n)
		}

		// Once b is gone the key is free again.
		if err := s.Update(ctx, "b", model.Patch{Active: &inactive}); err != nil {
			t.Fatalf("deactivate b: %v", err)
		}
		if err := s.Update(ctx, "a", model.Patch{Active: &active}); err != nil {
			t.Fatalf("reactivate a: %v", err)
		}
	})

	t.Run("FindOrderAndPaging", func(t *testing.T) {
		s := newStore(t)
		for i, id := range []string{"a", "b", "c", "d"} {
			if err := s.Insert(ctx, posting(id, "Oxford", "https://ox.ac.uk/"+id, i)); err != nil {
				t.Fatalf("Insert %s: %v", id, err)
			}
		}

		oldest, err := s.Find(ctx, model.Query{Order: model.OldestFirst, Limit: 2})
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if ids(oldest) != "ab" {
			t.Errorf("oldest first = %s, want ab", ids(oldest))
		}

		newest, err := s.Find(ctx, model.Query{Order: model.NewestFirst, Limit: 2, Skip: 1})
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if ids(newest) != "cb" {
			t.Errorf("newest first skip 1 = %s, want cb", ids(newest))
		}

		rest, err := s.Find(ctx, model.Query{Skip: 3})
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if ids(rest) != "d" {
			t.Errorf("skip 3 without limit = %s, want d", ids(rest))
		}
	})

	t.Run("FilterLikeIsCaseInsensitive", func(t *testing.T) {
		s := newStore(t)
		a := posting("a", "University of Oxford", "https://ox.ac.uk/a", 0)
		b := posting("b", "MIT", "https://mit.edu/b", 1)
		b.Location = "Cambridge, MA"
		b.Category = model.Teaching
		b.Title = "Lecturer in Robotics"
		for _, p := range []model.Posting{a, b} {
			if err := s.Insert(ctx, p); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}

		tests := []struct {
			name   string
			filter model.Filter
			want   string
		}{
			{"location", model.Filter{LocationLike: "london"}, "a"},
			{"category", model.Filter{CategoryLike: "teach"}, "b"},
			{"organization", model.Filter{OrganizationLike: "OXFORD"}, "a"},
			{"search title", model.Filter{Search: "robotics"}, "b"},
			{"search description", model.Filter{Search: "work on a"}, "a"},
			{"exact category", model.Filter{Category: model.Research}, "a"},
			{"wildcards are literal", model.Filter{Search: "%"}, ""},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				got, err := s.Find(ctx, model.Query{Filter: tc.filter})
				if err != nil {
					t.Fatalf("Find: %v", err)
				}
				if ids(got) != tc.want {
					t.Errorf("Find = %q, want %q", ids(got), tc.want)
				}
			})
		}
	})

	t.Run("MissingSummaryAndUpdate", func(t *testing.T) {
		s := newStore(t)
		a := posting("a", "Oxford", "https://ox.ac.uk/a", 0)
		b := posting("b", "Oxford", "https://ox.ac.uk/b", 1)
		b.Summary = strPtr("")
		c := posting("c", "Oxford", "https://ox.ac.uk/c", 2)
		c.Summary = strPtr("done")
		for _, p := range []model.Posting{a, b, c} {
			if err := s.Insert(ctx, p); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}

		pending, err := s.Find(ctx, model.Query{Filter: model.Filter{ActiveOnly: true, MissingSummary: true}})
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if ids(pending) != "ab" {
			t.Errorf("pending = %s, want ab", ids(pending))
		}

		cat := model.Fellowship
		if err := s.Update(ctx, "a", model.Patch{Summary: strPtr("short"), Category: &cat}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := s.FindByID(ctx, "a")
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Summary == nil || *got.Summary != "short" || got.Category != model.Fellowship {
			t.Errorf("after update: %+v", got)
		}
		if got.Title != a.Title {
			t.Error("update touched an unpatched field")
		}

		if err := s.Update(ctx, "missing", model.Patch{Summary: strPtr("x")}); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Update unknown err = %v, want ErrNotFound", err)
		}
		if err := s.Update(ctx, "missing", model.Patch{}); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("empty Update unknown err = %v, want ErrNotFound", err)
		}
	})

	t.Run("GroupCount", func(t *testing.T) {
		s := newStore(t)
		cats := []model.Category{model.Research, model.Teaching, model.Research, model.PhD, model.Research, model.Teaching}
		for i, c := range cats {
			p := posting(string(rune('a'+i)), "Oxford", "https://ox.ac.uk/"+string(rune('a'+i)), i)
			p.Category = c
			if i == 5 {
				p.Organization = "MIT"
			}
			if err := s.Insert(ctx, p); err != nil {
				t.Fatalf("Insert: %v", err)
			}
		}

		groups, err := s.GroupCount(ctx, model.GroupByCategory, model.Filter{}, 2)
		if err != nil {
			t.Fatalf("GroupCount: %v", err)
		}
		want := []model.GroupCount{{Key: "Research", Count: 3}, {Key: "Teaching", Count: 2}}
		if len(groups) != len(want) {
			t.Fatalf("groups = %+v, want %+v", groups, want)
		}
		for i := range want {
			if groups[i] != want[i] {
				t.Errorf("groups[%d] = %+v, want %+v", i, groups[i], want[i])
			}
		}

		orgs, err := s.GroupCount(ctx, model.GroupByOrganization, model.Filter{Category: model.Teaching}, 0)
		if err != nil {
			t.Fatalf("GroupCount: %v", err)
		}
		if len(orgs) != 2 {
			t.Errorf("orgs = %+v, want 2 groups", orgs)
		}

		if _, err := s.GroupCount(ctx, model.GroupField("title"), model.Filter{}, 0); err == nil {
			t.Error("expected error for unsupported group field")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

func ids(ps []model.Posting) string {
	var out string
	for _, p := range ps {
		out += p.ID
	}
	return out
}
