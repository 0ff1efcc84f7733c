package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/amishk599/acadjobs/internal/category"
	"github.com/amishk599/acadjobs/internal/model"
)

// DefaultClassifyTimeout bounds one classification call.
const DefaultClassifyTimeout = 20 * time.Second

// Classifier asks the LLM for a category and falls back to keyword rules.
type Classifier struct {
	llm     *Capability
	rules   *category.RuleClassifier
	tmpl    *template.Template
	timeout time.Duration
	logger  *slog.Logger
}

// NewClassifier creates a classifier. A nil rules value uses category.DefaultRules.
func NewClassifier(llm *Capability, rules *category.RuleClassifier, timeout time.Duration, logger *slog.Logger) *Classifier {
	if rules == nil {
		rules = category.NewRuleClassifier(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{
		llm:     llm,
		rules:   rules,
		tmpl:    CategoryTemplate,
		timeout: timeout,
		logger:  logger,
	}
}

// Classify implements model.Classifier. It never fails: any LLM problem,
// including a label outside the taxonomy, yields the rule-based category.
func (c *Classifier) Classify(ctx context.Context, title, description string) model.Category {
	out := c.suggest(ctx, title, description)
	if !out.Fallback {
		if label, ok := category.ParseAILabel(out.Text); ok {
			return label
		}
		out = UseFallback(fmt.Errorf("label %q outside taxonomy", out.Text))
	}

	if !errors.Is(out.Reason, ErrDisabled) {
		c.logger.Debug("classifier fallback to rules", "title", title, "reason", out.Reason)
	}
	return c.rules.Match(title, description)
}

func (c *Classifier) suggest(ctx context.Context, title, description string) Outcome {
	if !c.llm.Enabled() {
		return UseFallback(ErrDisabled)
	}

	prompt, err := renderPrompt(c.tmpl, promptData{
		Title:       title,
		Description: prefix(description, ClassifyPromptChars),
	})
	if err != nil {
		return UseFallback(err)
	}

	return c.llm.Try(ctx, Completion{
		Prompt:      prompt,
		Temperature: 0.1,
		MaxTokens:   10,
	}, c.timeout)
}
