package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

// GreenhouseBaseURL is the public Greenhouse job board API.
const GreenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response
// when requested with content=true.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from a Greenhouse public board, which
// research institutes and some universities use for hiring.
type GreenhouseAdapter struct {
	baseURL      string
	boardToken   string
	organization string
	location     string // fallback when a job has no location
	client       *http.Client
}

// NewGreenhouseAdapter creates an adapter for one board. An empty baseURL
// means GreenhouseBaseURL.
func NewGreenhouseAdapter(baseURL, boardToken, organization, location string, client *http.Client) *GreenhouseAdapter {
	if baseURL == "" {
		baseURL = GreenhouseBaseURL
	}
	return &GreenhouseAdapter{
		baseURL:      strings.TrimRight(baseURL, "/"),
		boardToken:   boardToken,
		organization: organization,
		location:     location,
		client:       client,
	}
}

// FetchCandidates retrieves every job on the board with its description.
func (a *GreenhouseAdapter) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", a.baseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, "greenhouse fetch for "+a.boardToken, &ghResp); err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		location := gj.Location.Name
		if location == "" {
			location = a.location
		}
		out = append(out, model.Candidate{
			Title:        gj.Title,
			Organization: a.organization,
			Description:  extractText(gj.Content),
			URL:          gj.AbsoluteURL,
			Location:     location,
			Source:       "greenhouse",
		})
	}
	return out, nil
}
