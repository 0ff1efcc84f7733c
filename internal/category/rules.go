// Package category holds the posting taxonomy rules: an ordered keyword
// classifier and the validator for labels returned by an LLM.
package category

import (
	"context"
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

// Rule assigns Category when any keyword is a substring of the lower-cased text.
type Rule struct {
	Category model.Category
	Keywords []string
}

// DefaultRules are evaluated top to bottom; the first matching rule wins.
// The order is the precedence: Research, Teaching, PhD, Fellowship,
// Internship, Technical, Administrative, then General as the catch-all.
var DefaultRules = []Rule{
	{Category: model.Research, Keywords: []string{"research", "postdoc", "research associate", "research fellow"}},
	{Category: model.Teaching, Keywords: []string{"lecturer", "professor", "teaching", "faculty"}},
	{Category: model.PhD, Keywords: []string{"phd", "doctoral", "doctorate"}},
	{Category: model.Fellowship, Keywords: []string{"fellowship", "fellow"}},
	{Category: model.Internship, Keywords: []string{"intern", "internship", "trainee"}},
	{Category: model.Technical, Keywords: []string{"technical", "engineer", "analyst", "developer"}},
	{Category: model.Administrative, Keywords: []string{"administrator", "manager", "coordinator", "officer"}},
}

// RuleClassifier is the deterministic keyword classifier.
type RuleClassifier struct {
	rules []Rule
}

// NewRuleClassifier returns a classifier over rules. A nil slice uses DefaultRules.
func NewRuleClassifier(rules []Rule) *RuleClassifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &RuleClassifier{rules: rules}
}

// Classify implements model.Classifier.
func (c *RuleClassifier) Classify(_ context.Context, title, description string) model.Category {
	return c.Match(title, description)
}

// Match returns the category of the first rule with a keyword hit, or General.
func (c *RuleClassifier) Match(title, description string) model.Category {
	text := strings.ToLower(title) + " " + strings.ToLower(description)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Category
			}
		}
	}
	return model.General
}

// ParseAILabel accepts an LLM reply only when, once trimmed, it is exactly one
// of the seven specific categories. General and Unclassified are rejected.
func ParseAILabel(reply string) (model.Category, bool) {
	label := model.Category(strings.TrimSpace(reply))
	for _, c := range model.Taxonomy {
		if c == model.General {
			continue
		}
		if label == c {
			return c, true
		}
	}
	return "", false
}
