package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"unicode/utf8"
)

//go:embed prompts/category.md
var categoryPromptRaw string

//go:embed prompts/summary.md
var summaryPromptRaw string

// Description prefixes sent to the LLM are capped at these lengths (characters).
const (
	ClassifyPromptChars  = 800
	SummarizePromptChars = 1500
)

// CategoryTemplate and SummaryTemplate are parsed once at package init.
var (
	CategoryTemplate = template.Must(template.New("category").Parse(categoryPromptRaw))
	SummaryTemplate  = template.Must(template.New("summary").Parse(summaryPromptRaw))
)

// promptData is the value every prompt template is executed with.
type promptData struct {
	Title        string
	Organization string
	Description  string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// prefix returns at most n characters of s.
func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
