package notifier

import (
	"log/slog"

	"github.com/amishk599/acadjobs/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly ingested postings to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting with university, title, location, URL and deadline.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(postings []model.Posting) error {
	for _, p := range postings {
		args := []any{"posting_id", p.ID, "university", p.Organization, "title", p.Title, "location", p.Location, "url", p.URL}
		if p.Deadline != nil {
			args = append(args, "deadline", p.Deadline.Format("2006-01-02"))
		}
		n.logger.Info("new posting", args...)
	}
	return nil
}
