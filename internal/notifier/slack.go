package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/acadjobs/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier announces postings in a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	interval   time.Duration // pause between messages
}

// NewSlackNotifier returns a notifier that posts each posting to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		interval:   500 * time.Millisecond,
	}
}

// Notify sends each posting as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	failures := 0
	for i, p := range postings {
		if i > 0 && s.interval > 0 {
			time.Sleep(s.interval)
		}

		if err := s.sendMessage(p); err != nil {
			s.logger.Error("slack notification failed", "university", p.Organization, "title", p.Title, "error", err)
			failures++
		}
	}

	if failures == len(postings) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(postings)-failures, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(p model.Posting) error {
	body, err := json.Marshal(buildPayload(p))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}

	// one retry after a 429
	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		if status, _, err = s.post(body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", "posting_id", p.ID, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", "posting_id", p.ID)
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, string, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a sample posting to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	deadline := time.Now().AddDate(0, 1, 0).UTC()
	summary := "This is a test announcement from acadjobs. If you can read it, notifications are configured correctly."
	return n.Notify([]model.Posting{{
		ID:           "test-001",
		Title:        "Test Notification: Integration Verified",
		Organization: "acadjobs",
		Location:     "Everywhere",
		URL:          "https://example.org/acadjobs",
		Deadline:     &deadline,
		Category:     model.General,
		Summary:      &summary,
		CreatedAt:    time.Now().UTC(),
		Active:       true,
	}})
}

func buildPayload(p model.Posting) slackPayload {
	deadlineText := "Not stated"
	if p.Deadline != nil {
		deadlineText = p.Deadline.Format("2 January 2006")
	}
	category := string(p.Category)
	if category == "" {
		category = string(model.Unclassified)
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🎓 " + p.Organization + ": " + p.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*University:*\n" + p.Organization},
				{Type: "mrkdwn", Text: "*Location:*\n" + p.Location},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Deadline:*\n" + deadlineText},
				{Type: "mrkdwn", Text: "*Category:*\n" + category},
			},
		},
	}

	if p.Enriched() {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: *p.Summary},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Posting"},
					URL:   p.URL,
					Style: "primary",
				},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
