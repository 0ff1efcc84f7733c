package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

const (
	workdayPageSize = 20
	// workdayMaxListings caps one fetch; university tenants can list thousands
	// of staff vacancies.
	workdayMaxListings = 200
)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string `json:"title"`
	ExternalPath  string `json:"externalPath"`
	LocationsText string `json:"locationsText"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdayDetailResponse is the response from the Workday job detail endpoint.
type workdayDetailResponse struct {
	JobPostingInfo workdayJobDetail `json:"jobPostingInfo"`
}

type workdayJobDetail struct {
	Title               string   `json:"title"`
	Location            string   `json:"location"`
	JobDescription      string   `json:"jobDescription"`
	ExternalURL         string   `json:"externalUrl"`
	AdditionalLocations []string `json:"additionalLocations"`
}

// WorkdayAdapter fetches postings from a Workday career site, the HR system
// behind many university vacancy portals.
type WorkdayAdapter struct {
	baseURL      string
	organization string
	client       *http.Client
	preFilter    model.CandidateFilter // optional: skips detail fetches for listings that clearly won't match
}

// NewWorkdayAdapter creates an adapter for a Workday career site, e.g.
// https://tenant.wd1.myworkdayjobs.com/wday/cxs/tenant/Careers. Pass a nil
// preFilter to fetch details for every listing.
func NewWorkdayAdapter(baseURL, organization string, client *http.Client, preFilter model.CandidateFilter) *WorkdayAdapter {
	return &WorkdayAdapter{
		baseURL:      strings.TrimRight(baseURL, "/"),
		organization: organization,
		client:       client,
		preFilter:    preFilter,
	}
}

// FetchCandidates pages through POST /jobs, then GETs the detail of every
// listing that passes the pre-filter to obtain its description.
func (a *WorkdayAdapter) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	listings, err := a.fetchAllListings(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.Candidate
	for _, l := range listings {
		if !a.listingPassesPreFilter(l) {
			continue
		}
		c, err := a.fetchDetail(ctx, l)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (a *WorkdayAdapter) fetchAllListings(ctx context.Context) ([]workdayListing, error) {
	var all []workdayListing
	label := "workday listing fetch for " + a.organization

	for offset := 0; offset < workdayMaxListings; offset += workdayPageSize {
		jsonBody, err := json.Marshal(workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/jobs", bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		body, err := do(a.client, req, label)
		if err != nil {
			return nil, err
		}

		var listResp workdayListingResponse
		if err := json.Unmarshal(body, &listResp); err != nil {
			return nil, fmt.Errorf("%s: decoding: %w", label, err)
		}

		all = append(all, listResp.JobPostings...)
		if len(listResp.JobPostings) == 0 || offset+workdayPageSize >= listResp.Total {
			break
		}
	}
	return all, nil
}

func (a *WorkdayAdapter) fetchDetail(ctx context.Context, listing workdayListing) (model.Candidate, error) {
	var detail workdayDetailResponse
	label := "workday detail fetch for " + a.organization
	if err := getJSON(ctx, a.client, a.baseURL+"/"+strings.TrimLeft(listing.ExternalPath, "/"), label, &detail); err != nil {
		return model.Candidate{}, err
	}

	info := detail.JobPostingInfo
	location := info.Location
	if location == "" {
		location = listing.LocationsText
	}
	if len(info.AdditionalLocations) > 0 {
		location = location + "; " + strings.Join(info.AdditionalLocations, "; ")
	}

	title := info.Title
	if title == "" {
		title = listing.Title
	}

	return model.Candidate{
		Title:        title,
		Organization: a.organization,
		Description:  extractText(info.JobDescription),
		URL:          info.ExternalURL,
		Location:     location,
		Source:       "workday",
	}, nil
}

var ambiguousLocationRegex = regexp.MustCompile(`^\d+ Locations?$`)

// listingPassesPreFilter checks whether a listing is worth a detail fetch.
// Listings with an ambiguous locationsText such as "2 Locations" are let
// through: the real location is only known after the detail fetch, and the
// poller's filter checks it then.
func (a *WorkdayAdapter) listingPassesPreFilter(l workdayListing) bool {
	if a.preFilter == nil {
		return true
	}
	if isAmbiguousLocation(l.LocationsText) {
		return true
	}
	return a.preFilter.Match(model.Candidate{
		Title:        l.Title,
		Organization: a.organization,
		Location:     l.LocationsText,
	})
}

// isAmbiguousLocation returns true for Workday location strings like
// "2 Locations" where the actual location is unknown.
func isAmbiguousLocation(loc string) bool {
	return ambiguousLocationRegex.MatchString(loc)
}
