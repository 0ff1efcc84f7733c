package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/acadjobs/internal/model"
)

type titleMatcher struct{ word string }

func (m titleMatcher) MatchPosting(p model.Posting) bool {
	return strings.Contains(strings.ToLower(p.Title), m.word)
}

type fakeSummarizer struct{ calls int }

func (s *fakeSummarizer) Summarize(_ context.Context, title, _, _ string) string {
	s.calls++
	return "preview of " + title
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func samplePostings() []model.Posting {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.Posting{
		{ID: "a", Title: "Lecturer in History", Organization: "UCL", Location: "London", CreatedAt: base},
		{ID: "b", Title: "Research Fellow", Organization: "KCL", Location: "London", CreatedAt: base.Add(2 * time.Hour), Description: "Study things."},
		{ID: "c", Title: "Senior Lecturer", Organization: "LSE", Location: "London", CreatedAt: base.Add(time.Hour)},
	}
}

func sized(m auditModel) auditModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(auditModel)
}

func TestNewAuditModel_SortsAndMatches(t *testing.T) {
	m := newAuditModel("Teaching", samplePostings(), titleMatcher{word: "lecturer"}, nil)

	var ids []string
	for _, p := range m.allPostings {
		ids = append(ids, p.ID)
	}
	if got := strings.Join(ids, ","); got != "b,c,a" {
		t.Errorf("order = %s, want b,c,a", got)
	}
	if len(m.matched) != 2 || m.matched[0].ID != "c" || m.matched[1].ID != "a" {
		t.Errorf("matched = %+v", m.matched)
	}
}

func TestNewAuditModel_NilMatcherMatchesAll(t *testing.T) {
	m := newAuditModel(AllCategories, samplePostings(), nil, nil)
	if len(m.matched) != 3 {
		t.Errorf("matched = %d, want 3", len(m.matched))
	}
}

func TestAuditModel_CursorAndDetail(t *testing.T) {
	m := sized(newAuditModel(AllCategories, samplePostings(), titleMatcher{word: "lecturer"}, nil))

	next, _ := m.Update(key("down"))
	m = next.(auditModel)
	if m.leftCursor != 1 {
		t.Fatalf("leftCursor = %d, want 1", m.leftCursor)
	}

	next, _ = m.Update(key("enter"))
	m = next.(auditModel)
	if m.view != viewDetail || m.detail.ID != "c" {
		t.Fatalf("detail = %q (view %d), want c", m.detail.ID, m.view)
	}
	if !strings.Contains(m.renderDetail(), "Senior Lecturer") {
		t.Error("detail does not show the title")
	}

	next, _ = m.Update(key("esc"))
	m = next.(auditModel)
	if m.view != viewList {
		t.Error("esc did not return to the list")
	}

	next, _ = m.Update(key("tab"))
	m = next.(auditModel)
	if m.activePane != 1 || m.activeCursor() != 0 {
		t.Errorf("activePane = %d cursor = %d", m.activePane, m.activeCursor())
	}
}

func TestAuditModel_QuitKeys(t *testing.T) {
	m := sized(newAuditModel(AllCategories, samplePostings(), nil, nil))

	next, cmd := m.Update(key("q"))
	if !next.(auditModel).wantQuit || cmd == nil {
		t.Error("q should quit the program")
	}

	next, cmd = m.Update(key("esc"))
	if next.(auditModel).wantQuit || cmd == nil {
		t.Error("esc should return to the picker")
	}
}

func TestAuditModel_SummaryPreview(t *testing.T) {
	summarizer := &fakeSummarizer{}
	m := sized(newAuditModel(AllCategories, samplePostings(), nil, summarizer))

	next, _ := m.Update(key("enter"))
	m = next.(auditModel)
	if !m.canPreview() {
		t.Fatal("expected preview to be available for an unenriched posting")
	}

	next, cmd := m.Update(key("s"))
	m = next.(auditModel)
	if cmd == nil || !m.previewLoading {
		t.Fatal("s should start a preview")
	}

	msg := cmd()
	next, _ = m.Update(msg)
	m = next.(auditModel)
	if m.previewLoading {
		t.Error("previewLoading still set")
	}
	if m.previews["b"] != "preview of Research Fellow" {
		t.Errorf("previews = %v", m.previews)
	}
	if !strings.Contains(m.renderDetail(), "preview of Research Fellow") {
		t.Error("detail does not show the preview")
	}
	if m.canPreview() {
		t.Error("preview should not be offered twice")
	}
	if summarizer.calls != 1 {
		t.Errorf("summarizer calls = %d, want 1", summarizer.calls)
	}
}

func TestAuditModel_EnrichedShowsStoredSummary(t *testing.T) {
	summary := "Stored summary."
	postings := []model.Posting{{ID: "x", Title: "Fellow", Summary: &summary, CreatedAt: time.Now()}}
	m := sized(newAuditModel(AllCategories, postings, nil, &fakeSummarizer{}))

	next, _ := m.Update(key("enter"))
	m = next.(auditModel)
	if m.canPreview() {
		t.Error("enriched postings should not offer a preview")
	}
	if !strings.Contains(m.renderDetail(), "Stored summary.") {
		t.Error("detail does not show the stored summary")
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Errorf("wordWrap = %q", got)
	}
	if wordWrap("   ", 10) != "" {
		t.Error("blank input should wrap to empty")
	}
}

func TestPickerEntries(t *testing.T) {
	got := pickerEntries([]model.GroupCount{{Key: "Research", Count: 3}, {Key: "Teaching", Count: 2}})
	if len(got) != 3 || got[0].Key != AllCategories || got[0].Count != 5 {
		t.Errorf("pickerEntries = %+v", got)
	}
}
