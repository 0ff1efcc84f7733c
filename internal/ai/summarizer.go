package ai

import (
	"context"
	"errors"
	"log/slog"
	"text/template"
	"time"

	"github.com/amishk599/acadjobs/internal/summary"
)

// DefaultSummarizeTimeout bounds one summary call.
const DefaultSummarizeTimeout = 30 * time.Second

// Summarizer asks the LLM for a short professional synopsis and falls back
// to summary.Extract.
type Summarizer struct {
	llm     *Capability
	tmpl    *template.Template
	timeout time.Duration
	logger  *slog.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(llm *Capability, timeout time.Duration, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Summarizer{
		llm:     llm,
		tmpl:    SummaryTemplate,
		timeout: timeout,
		logger:  logger,
	}
}

// Summarize implements model.Summarizer. The result is never empty and never
// longer than model.MaxSummaryLen characters.
func (s *Summarizer) Summarize(ctx context.Context, title, description, organization string) string {
	out := s.generate(ctx, title, description, organization)
	if out.Fallback {
		if !errors.Is(out.Reason, ErrDisabled) {
			s.logger.Debug("summarizer fallback to extract", "title", title, "reason", out.Reason)
		}
		return summary.Extract(title, description)
	}
	return summary.Clamp(out.Text)
}

func (s *Summarizer) generate(ctx context.Context, title, description, organization string) Outcome {
	if !s.llm.Enabled() {
		return UseFallback(ErrDisabled)
	}

	prompt, err := renderPrompt(s.tmpl, promptData{
		Title:        title,
		Organization: organization,
		Description:  prefix(description, SummarizePromptChars),
	})
	if err != nil {
		return UseFallback(err)
	}

	return s.llm.Try(ctx, Completion{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   200,
	}, s.timeout)
}
