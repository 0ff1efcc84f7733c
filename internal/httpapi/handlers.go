package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/amishk599/acadjobs/internal/ingest"
	"github.com/amishk599/acadjobs/internal/model"
	"github.com/amishk599/acadjobs/internal/summary"
)

type listQuery struct {
	Location   string `query:"location"`
	Category   string `query:"category"`
	University string `query:"university"`
	Search     string `query:"search"`
	Limit      int    `query:"limit" validate:"gte=1"`
	Skip       int    `query:"skip" validate:"gte=0"`
}

type createPostingRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	University  string `json:"university" validate:"required,max=300"`
	Description string `json:"description" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	Location    string `json:"location"`
	Deadline    string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Category    string `json:"category"`
	Summary     string `json:"summary"`
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type universityCount struct {
	University string `json:"university"`
	Count      int    `json:"count"`
}

type statsResponse struct {
	TotalJobs       int               `json:"total_jobs"`
	LocationJobs    int               `json:"location_jobs"`
	Location        string            `json:"location"`
	TopCategories   []categoryCount   `json:"top_categories"`
	TopUniversities []universityCount `json:"top_universities"`
}

const createLocationDefault = "London, UK"

func (s *Server) root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Academic Jobs API", "status": "active"})
}

// listPostings returns active postings, newest first. An absent location
// parameter means the default location; an empty one disables the filter.
func (s *Server) listPostings(c *fiber.Ctx) error {
	q := listQuery{Limit: s.opts.DefaultLimit}
	if err := c.QueryParser(&q); err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid query: %v", err))
	}
	if err := s.validate.Struct(q); err != nil {
		return respondError(c, fiber.StatusBadRequest, validationMessage(err))
	}
	if q.Limit > s.opts.MaxLimit {
		q.Limit = s.opts.MaxLimit
	}
	if !c.Context().QueryArgs().Has("location") {
		q.Location = s.opts.DefaultLocation
	}

	postings, err := s.store.Find(c.UserContext(), model.Query{
		Filter: model.Filter{
			ActiveOnly:       true,
			LocationLike:     q.Location,
			CategoryLike:     q.Category,
			OrganizationLike: q.University,
			Search:           q.Search,
		},
		Order: model.NewestFirst,
		Limit: q.Limit,
		Skip:  q.Skip,
	})
	if err != nil {
		return fmt.Errorf("listing postings: %w", err)
	}
	if postings == nil {
		postings = []model.Posting{}
	}
	return c.JSON(postings)
}

func (s *Server) getPosting(c *fiber.Ctx) error {
	p, err := s.store.FindByID(c.UserContext(), c.Params("id"))
	if errors.Is(err, model.ErrNotFound) {
		return respondError(c, fiber.StatusNotFound, "posting not found")
	}
	if err != nil {
		return fmt.Errorf("fetching posting: %w", err)
	}
	return c.JSON(p)
}

// createPosting adds a hand-submitted posting through the same dedup path
// as ingestion.
func (s *Server) createPosting(c *fiber.Ctx) error {
	var req createPostingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if err := s.validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, validationMessage(err))
	}

	cand := model.Candidate{
		Title:        req.Title,
		Organization: req.University,
		Description:  req.Description,
		URL:          req.URL,
		Location:     req.Location,
		Category:     model.Category(req.Category),
		Source:       "api",
	}
	if cand.Location == "" {
		cand.Location = createLocationDefault
	}
	if req.Deadline != "" {
		d, _ := time.Parse("2006-01-02", req.Deadline)
		cand.Deadline = &d
	}

	cand = ingest.CleanCandidate(cand)
	if cand.Title == "" || cand.Organization == "" || cand.URL == "" {
		return respondError(c, fiber.StatusBadRequest, "title, university and url must not be blank")
	}

	p, inserted, err := s.dedup.Insert(c.UserContext(), cand)
	if err != nil {
		return fmt.Errorf("creating posting: %w", err)
	}
	if !inserted {
		return respondError(c, fiber.StatusConflict, "posting already exists")
	}

	if text := strings.TrimSpace(req.Summary); text != "" {
		text = summary.Clamp(text)
		if err := s.store.Update(c.UserContext(), p.ID, model.Patch{Summary: &text}); err != nil {
			return fmt.Errorf("storing submitted summary: %w", err)
		}
		p.Summary = &text
	}

	s.logger.Info("posting created via api", "posting_id", p.ID, "organization", p.Organization)
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (s *Server) stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	active := model.Filter{ActiveOnly: true}
	inLocation := model.Filter{ActiveOnly: true, LocationLike: s.opts.DefaultLocation}

	total, err := s.store.Count(ctx, active)
	if err != nil {
		return fmt.Errorf("counting postings: %w", err)
	}
	local, err := s.store.Count(ctx, inLocation)
	if err != nil {
		return fmt.Errorf("counting postings in %s: %w", s.opts.DefaultLocation, err)
	}
	cats, err := s.store.GroupCount(ctx, model.GroupByCategory, active, 5)
	if err != nil {
		return fmt.Errorf("grouping by category: %w", err)
	}
	unis, err := s.store.GroupCount(ctx, model.GroupByOrganization, inLocation, 5)
	if err != nil {
		return fmt.Errorf("grouping by university: %w", err)
	}

	resp := statsResponse{
		TotalJobs:       total,
		LocationJobs:    local,
		Location:        s.opts.DefaultLocation,
		TopCategories:   make([]categoryCount, 0, len(cats)),
		TopUniversities: make([]universityCount, 0, len(unis)),
	}
	for _, g := range cats {
		resp.TopCategories = append(resp.TopCategories, categoryCount{Category: g.Key, Count: g.Count})
	}
	for _, g := range unis {
		resp.TopUniversities = append(resp.TopUniversities, universityCount{University: g.Key, Count: g.Count})
	}
	return c.JSON(resp)
}

func (s *Server) listSources(c *fiber.Ctx) error {
	if s.sources == nil {
		return c.JSON([]SourceInfo{})
	}
	return c.JSON(s.sources)
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "validation failed: " + err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		parts = append(parts, msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
