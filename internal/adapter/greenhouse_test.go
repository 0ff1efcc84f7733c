package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/acadjobs/internal/model"
)

func TestGreenhouse_FetchCandidates(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Research Associate in Genomics",
				"location": {"name": "Cambridge, UK"},
				"absolute_url": "https://boards.greenhouse.io/sanger/jobs/12345",
				"content": "&lt;p&gt;Join our sequencing team.&lt;/p&gt;&lt;p&gt;PhD required.&lt;/p&gt;"
			},
			{
				"id": 67890,
				"title": "Lab Technician",
				"location": {"name": ""},
				"absolute_url": "https://boards.greenhouse.io/sanger/jobs/67890",
				"content": ""
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sanger/jobs" || r.URL.Query().Get("content") != "true" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewGreenhouseAdapter(srv.URL, "sanger", "Wellcome Sanger Institute", "Hinxton", srv.Client())
	got, err := a.FetchCandidates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}

	c := got[0]
	if c.Organization != "Wellcome Sanger Institute" {
		t.Errorf("Organization = %q", c.Organization)
	}
	if c.Title != "Research Associate in Genomics" || c.Location != "Cambridge, UK" {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.Description != "Join our sequencing team. PhD required." {
		t.Errorf("Description = %q", c.Description)
	}
	if c.Source != "greenhouse" {
		t.Errorf("Source = %q", c.Source)
	}
	if got[1].Location != "Hinxton" {
		t.Errorf("fallback location = %q, want Hinxton", got[1].Location)
	}
}

func TestGreenhouse_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	got, err := NewGreenhouseAdapter(srv.URL, "empty", "Empty", "", srv.Client()).FetchCandidates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 candidates, got %d", len(got))
	}
}

func TestGreenhouse_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	if _, err := NewGreenhouseAdapter(srv.URL, "bad", "Bad", "", srv.Client()).FetchCandidates(context.Background()); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestGreenhouse_HTTPErrorCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGreenhouseAdapter(srv.URL, "busy", "Busy", "", srv.Client()).FetchCandidates(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "double-encoded HTML from board API",
			input: "This is the job description. &lt;p&gt;Any HTML included.&lt;/p&gt;",
			want:  "This is the job description. Any HTML included.",
		},
		{
			name:  "nested tags and whitespace",
			input: "&lt;p&gt;We are hiring.&lt;/p&gt;\n&lt;ul&gt;\n  &lt;li&gt;Teach&lt;/li&gt;\n  &lt;li&gt;Research&lt;/li&gt;\n&lt;/ul&gt;",
			want:  "We are hiring. Teach Research",
		},
		{
			name:  "adjacent blocks do not run together",
			input: "<p>One</p><p>Two</p>",
			want:  "One Two",
		},
		{
			name:  "plain text with no HTML",
			input: "No tags here.",
			want:  "No tags here.",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractText(tc.input); got != tc.want {
				t.Errorf("extractText(%q)\n got  %q\n want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		input string
		want  string // 2006-01-02, "" for nil
	}{
		{"2025-03-14", "2025-03-14"},
		{"Closing date: 14 March 2025", "2025-03-14"},
		{"Deadline - 4 Apr 2025.", "2025-04-04"},
		{"Apply by March 9, 2025", "2025-03-09"},
		{"Closes: 01/06/2025", "2025-06-01"},
		{"Open until filled", ""},
		{"", ""},
	}
	for _, tc := range tests {
		got := parseDeadline(tc.input)
		switch {
		case tc.want == "" && got != nil:
			t.Errorf("parseDeadline(%q) = %v, want nil", tc.input, got)
		case tc.want != "" && (got == nil || got.Format("2006-01-02") != tc.want):
			t.Errorf("parseDeadline(%q) = %v, want %s", tc.input, got, tc.want)
		}
	}
}
