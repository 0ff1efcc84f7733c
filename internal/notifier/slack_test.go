package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNotifier(url string, client *http.Client) *SlackNotifier {
	n := NewSlackNotifier(url, client, discardLogger())
	n.interval = 0
	return n
}

func samplePosting(title, university string) model.Posting {
	deadline := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return model.Posting{
		ID:           "123",
		Organization: university,
		Title:        title,
		Location:     "London, UK",
		URL:          "https://example.ac.uk/apply",
		Deadline:     &deadline,
		Category:     model.Research,
		Active:       true,
	}
}

func TestSlackNotifier_EmptyPostings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())

	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.Posting{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_SinglePosting(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.Posting{samplePosting("Lecturer in Physics", "Imperial College")}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if got := payload.Blocks[0].Text.Text; got != "🎓 Imperial College: Lecturer in Physics" {
		t.Errorf("header text = %q", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*University:*\nImperial College" {
		t.Errorf("university field = %q", got)
	}
	if got := payload.Blocks[2].Fields[0].Text; got != "*Deadline:*\n15 January 2026" {
		t.Errorf("deadline field = %q", got)
	}
	if got := payload.Blocks[3].Elements[0].URL; got != "https://example.ac.uk/apply" {
		t.Errorf("action URL = %q", got)
	}
}

func TestSlackNotifier_MultiplePostings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	postings := []model.Posting{
		samplePosting("Fellow 1", "A"),
		samplePosting("Fellow 2", "B"),
		samplePosting("Fellow 3", "C"),
	}
	if err := n.Notify(postings); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	postings := []model.Posting{
		samplePosting("A", "X"),
		samplePosting("B", "Y"),
	}
	if err := n.Notify(postings); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	postings := []model.Posting{
		samplePosting("Fails", "A"),
		samplePosting("Succeeds", "B"),
	}
	if err := n.Notify(postings); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify([]model.Posting{samplePosting("Rate Limited", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	p := model.Posting{
		ID:           "456",
		Organization: "TestU",
		Title:        "Lab Technician",
		Location:     "Leeds",
		URL:          "https://example.ac.uk/tech",
	}
	if err := n.Notify([]model.Posting{p}); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" {
		t.Errorf("block[0] type = %q, want header", payload.Blocks[0].Type)
	}
	if payload.Blocks[2].Fields[0].Text != "*Deadline:*\nNot stated" {
		t.Errorf("deadline field = %q", payload.Blocks[2].Fields[0].Text)
	}
	if payload.Blocks[2].Fields[1].Text != "*Category:*\nUnclassified" {
		t.Errorf("category field = %q", payload.Blocks[2].Fields[1].Text)
	}
	if payload.Blocks[3].Type != "actions" || payload.Blocks[3].Elements[0].Style != "primary" {
		t.Errorf("block[3] not a primary action")
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("block[4] type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestBuildPayload_IncludesSummary(t *testing.T) {
	p := samplePosting("Postdoc", "Oxford")
	summary := "A two-year postdoc in quantum optics."
	p.Summary = &summary

	payload := buildPayload(p)
	if len(payload.Blocks) != 6 {
		t.Fatalf("expected 6 blocks with summary, got %d", len(payload.Blocks))
	}
	if payload.Blocks[3].Text == nil || payload.Blocks[3].Text.Text != summary {
		t.Errorf("summary block = %+v", payload.Blocks[3])
	}
}

func TestSendTestMessage(t *testing.T) {
	rec := &recordingNotifier{}
	if err := SendTestMessage(rec); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if len(rec.got) != 1 || rec.got[0].ID != "test-001" {
		t.Errorf("unexpected postings: %+v", rec.got)
	}
}

type recordingNotifier struct{ got []model.Posting }

func (r *recordingNotifier) Notify(p []model.Posting) error {
	r.got = append(r.got, p...)
	return nil
}
