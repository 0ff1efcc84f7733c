package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/amishk599/acadjobs/internal/model"
)

// mockProvider is a stub LLMProvider that records every completion.
type mockProvider struct {
	response string
	err      error
	calls    []Completion
}

func (m *mockProvider) Complete(_ context.Context, c Completion) (string, error) {
	m.calls = append(m.calls, c)
	return m.response, m.err
}

// blockingProvider waits for the context to end.
type blockingProvider struct{}

func (blockingProvider) Complete(ctx context.Context, _ Completion) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

const (
	postdocTitle = "Postdoctoral Researcher"
	postdocDesc  = "This role requires a PhD. The lab focuses on robotics. Funding is available."
)

func TestCapability_NopIsDisabled(t *testing.T) {
	c := NewCapability(NewNopProvider(), nil)
	if c.Enabled() {
		t.Fatal("nop capability should be disabled")
	}
	out := c.Try(context.Background(), Completion{Prompt: "x"}, time.Second)
	if !out.Fallback || !errors.Is(out.Reason, ErrDisabled) {
		t.Errorf("Try = %+v, want fallback with ErrDisabled", out)
	}

	var nilCap *Capability
	if nilCap.Enabled() {
		t.Error("nil capability should be disabled")
	}
}

func TestCapability_TrimsAndRejectsEmpty(t *testing.T) {
	c := NewCapability(&mockProvider{response: "  \n "}, nil)
	out := c.Try(context.Background(), Completion{}, 0)
	if !out.Fallback || !errors.Is(out.Reason, ErrEmptyReply) {
		t.Errorf("Try = %+v, want empty-reply fallback", out)
	}

	c = NewCapability(&mockProvider{response: "  Teaching\n"}, nil)
	out = c.Try(context.Background(), Completion{}, 0)
	if out.Fallback || out.Text != "Teaching" {
		t.Errorf("Try = %+v, want generated Teaching", out)
	}
}

func TestCapability_TimeoutFallsBack(t *testing.T) {
	c := NewCapability(blockingProvider{}, nil)
	start := time.Now()
	out := c.Try(context.Background(), Completion{}, 20*time.Millisecond)
	if !out.Fallback || !errors.Is(out.Reason, context.DeadlineExceeded) {
		t.Errorf("Try = %+v, want deadline fallback", out)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not applied")
	}
}

func TestClassifier_UsesValidLLMLabel(t *testing.T) {
	p := &mockProvider{response: "Fellowship\n"}
	c := NewClassifier(NewCapability(p, nil), nil, time.Second, nil)

	if got := c.Classify(context.Background(), postdocTitle, postdocDesc); got != model.Fellowship {
		t.Errorf("Classify = %s, want Fellowship", got)
	}
	if len(p.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(p.calls))
	}
	if p.calls[0].Temperature != 0.1 || p.calls[0].MaxTokens != 10 {
		t.Errorf("sampling = (%v, %d), want (0.1, 10)", p.calls[0].Temperature, p.calls[0].MaxTokens)
	}
}

func TestClassifier_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name     string
		provider LLMProvider
	}{
		{"disabled", NewNopProvider()},
		{"http 500", &mockProvider{err: &model.HTTPError{StatusCode: http.StatusInternalServerError}}},
		{"network error", &mockProvider{err: errors.New("connection reset")}},
		{"general is not accepted", &mockProvider{response: "General"}},
		{"free text", &mockProvider{response: "I think this is a research job"}},
		{"empty", &mockProvider{response: ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(NewCapability(tc.provider, nil), nil, time.Second, nil)
			if got := c.Classify(context.Background(), postdocTitle, postdocDesc); got != model.Research {
				t.Errorf("Classify = %s, want rule-based Research", got)
			}
		})
	}
}

func TestClassifier_CapsDescriptionInPrompt(t *testing.T) {
	p := &mockProvider{response: "Technical"}
	c := NewClassifier(NewCapability(p, nil), nil, time.Second, nil)

	desc := strings.Repeat("x", ClassifyPromptChars) + "TAIL"
	c.Classify(context.Background(), "Engineer", desc)

	prompt := p.calls[0].Prompt
	if strings.Contains(prompt, "TAIL") {
		t.Error("prompt contains description beyond the 800-character cap")
	}
	if !strings.Contains(prompt, strings.Repeat("x", ClassifyPromptChars)) {
		t.Error("prompt is missing the capped description prefix")
	}
	if !strings.Contains(prompt, "Job Title: Engineer") {
		t.Error("prompt is missing the title")
	}
}

func TestClassifier_NoCallsWhenDisabled(t *testing.T) {
	c := NewClassifier(nil, nil, time.Second, nil)
	if got := c.Classify(context.Background(), "Lecturer", ""); got != model.Teaching {
		t.Errorf("Classify = %s, want Teaching", got)
	}
}

func TestSummarizer_UsesLLMText(t *testing.T) {
	p := &mockProvider{response: "  A concise summary.  "}
	s := NewSummarizer(NewCapability(p, nil), time.Second, nil)

	got := s.Summarize(context.Background(), postdocTitle, postdocDesc, "Imperial College London")
	if got != "A concise summary." {
		t.Errorf("Summarize = %q", got)
	}
	call := p.calls[0]
	if call.Temperature != 0.3 || call.MaxTokens != 200 {
		t.Errorf("sampling = (%v, %d), want (0.3, 200)", call.Temperature, call.MaxTokens)
	}
	if !strings.Contains(call.Prompt, "University: Imperial College London") {
		t.Error("prompt is missing the organization")
	}
}

func TestSummarizer_FallsBackToExtract(t *testing.T) {
	want := "This role requires a PhD. The lab focuses on robotics."
	providers := map[string]LLMProvider{
		"disabled": NewNopProvider(),
		"http 500": &mockProvider{err: &model.HTTPError{StatusCode: 500}},
		"empty":    &mockProvider{response: "\n"},
	}
	for name, p := range providers {
		t.Run(name, func(t *testing.T) {
			s := NewSummarizer(NewCapability(p, nil), time.Second, nil)
			if got := s.Summarize(context.Background(), postdocTitle, postdocDesc, "Org"); got != want {
				t.Errorf("Summarize = %q, want %q", got, want)
			}
		})
	}
}

func TestSummarizer_CapsPromptAndOutput(t *testing.T) {
	p := &mockProvider{response: strings.Repeat("s", 3000)}
	s := NewSummarizer(NewCapability(p, nil), time.Second, nil)

	desc := strings.Repeat("d", SummarizePromptChars) + "TAIL"
	got := s.Summarize(context.Background(), "t", desc, "o")

	if strings.Contains(p.calls[0].Prompt, "TAIL") {
		t.Error("prompt contains description beyond the 1500-character cap")
	}
	if n := utf8.RuneCountInString(got); n > model.MaxSummaryLen {
		t.Errorf("summary length = %d, want <= %d", n, model.MaxSummaryLen)
	}
}
