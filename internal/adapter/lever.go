package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

// LeverBaseURL is the public Lever postings API.
const LeverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever posting.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverPosting represents a single posting in the Lever API response.
type leverPosting struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverAdapter fetches postings from a Lever public site.
type LeverAdapter struct {
	baseURL      string
	slug         string
	organization string
	location     string
	client       *http.Client
}

// NewLeverAdapter creates an adapter for one Lever site. An empty baseURL
// means LeverBaseURL.
func NewLeverAdapter(baseURL, slug, organization, location string, client *http.Client) *LeverAdapter {
	if baseURL == "" {
		baseURL = LeverBaseURL
	}
	return &LeverAdapter{
		baseURL:      strings.TrimRight(baseURL, "/"),
		slug:         slug,
		organization: organization,
		location:     location,
		client:       client,
	}
}

// FetchCandidates retrieves every posting of the site.
func (a *LeverAdapter) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	url := fmt.Sprintf("%s/%s?mode=json", a.baseURL, a.slug)

	var postings []leverPosting
	if err := getJSON(ctx, a.client, url, "lever fetch for "+a.slug, &postings); err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(postings))
	for _, lp := range postings {
		// prefer allLocations if available
		location := lp.Categories.Location
		if len(lp.Categories.AllLocations) > 0 {
			location = strings.Join(lp.Categories.AllLocations, ", ")
		}
		if location == "" {
			location = a.location
		}

		description := lp.DescriptionPlain
		if description == "" {
			description = extractText(lp.Description)
		}

		link := lp.HostedURL
		if link == "" {
			link = lp.ApplyURL
		}

		out = append(out, model.Candidate{
			Title:        lp.Text,
			Organization: a.organization,
			Description:  description,
			URL:          link,
			Location:     location,
			Source:       "lever",
		})
	}
	return out, nil
}
