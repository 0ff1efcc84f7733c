package adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/acadjobs/internal/model"
)

// seedPosting is one entry of a seed file.
type seedPosting struct {
	Title       string `yaml:"title"`
	University  string `yaml:"university"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
	Location    string `yaml:"location"`
	Deadline    string `yaml:"deadline"` // 2006-01-02
	Category    string `yaml:"category"`
}

type seedFile struct {
	Postings []seedPosting `yaml:"postings"`
}

// SeedAdapter reads postings from a local YAML file. It is used to load
// hand-curated vacancies and sample data.
type SeedAdapter struct {
	path         string
	organization string // default when an entry names no university
	location     string
}

func NewSeedAdapter(path, organization, location string) *SeedAdapter {
	return &SeedAdapter{path: path, organization: organization, location: location}
}

func (a *SeedAdapter) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", a.path, err)
	}

	out := make([]model.Candidate, 0, len(f.Postings))
	for i, sp := range f.Postings {
		c := model.Candidate{
			Title:        sp.Title,
			Organization: sp.University,
			Description:  sp.Description,
			URL:          sp.URL,
			Location:     sp.Location,
			Category:     model.Category(sp.Category),
			Source:       "seed",
		}
		if c.Organization == "" {
			c.Organization = a.organization
		}
		if c.Location == "" {
			c.Location = a.location
		}
		if sp.Deadline != "" {
			d, err := time.Parse("2006-01-02", sp.Deadline)
			if err != nil {
				return nil, fmt.Errorf("seed file %s: posting %d: invalid deadline %q", a.path, i+1, sp.Deadline)
			}
			c.Deadline = &d
		}
		out = append(out, c)
	}
	return out, nil
}
