package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/acadjobs/internal/model"
)

// Selectors are the CSS selectors that locate postings on a careers page.
// Item is required; the others are evaluated inside each item. An empty Link
// uses the item itself when it is an anchor, otherwise its first anchor.
type Selectors struct {
	Item        string
	Title       string
	Link        string
	Description string
	Location    string
	Deadline    string
}

// PageLoader returns the HTML of a page.
type PageLoader interface {
	Load(ctx context.Context, pageURL string) (string, error)
}

// HTTPLoader loads pages with a plain GET.
type HTTPLoader struct {
	client *http.Client
}

func NewHTTPLoader(client *http.Client) *HTTPLoader {
	return &HTTPLoader{client: client}
}

func (l *HTTPLoader) Load(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", pageURL, err)
	}
	req.Header.Set("Accept", "text/html")
	body, err := do(l.client, req, "loading "+pageURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// HTMLAdapter scrapes a university careers page with CSS selectors.
type HTMLAdapter struct {
	pageURL      string
	organization string
	location     string // used when the page carries no per-item location
	selectors    Selectors
	loader       PageLoader
}

// NewHTMLAdapter creates a scraper for one careers page.
func NewHTMLAdapter(pageURL, organization, location string, selectors Selectors, loader PageLoader) *HTMLAdapter {
	return &HTMLAdapter{
		pageURL:      pageURL,
		organization: organization,
		location:     location,
		selectors:    selectors,
		loader:       loader,
	}
}

func (a *HTMLAdapter) FetchCandidates(ctx context.Context) ([]model.Candidate, error) {
	page, err := a.loader.Load(ctx, a.pageURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(a.pageURL)
	if err != nil {
		return nil, fmt.Errorf("html source %s: parsing page url: %w", a.organization, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("html source %s: parsing page: %w", a.organization, err)
	}

	var out []model.Candidate
	doc.Find(a.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		c := model.Candidate{
			Title:        a.text(item, a.selectors.Title),
			Organization: a.organization,
			URL:          resolveLink(base, a.href(item)),
			Location:     a.location,
			Source:       "html",
		}
		if a.selectors.Description != "" {
			c.Description = a.text(item, a.selectors.Description)
		}
		if a.selectors.Location != "" {
			if loc := a.text(item, a.selectors.Location); loc != "" {
				c.Location = loc
			}
		}
		if a.selectors.Deadline != "" {
			c.Deadline = parseDeadline(a.text(item, a.selectors.Deadline))
		}
		if c.Title == "" || c.URL == "" {
			return
		}
		out = append(out, c)
	})
	return out, nil
}

// text returns the cleaned text of the first match of sel inside item, or
// of item itself when sel is empty.
func (a *HTMLAdapter) text(item *goquery.Selection, sel string) string {
	if sel == "" {
		return strings.Join(strings.Fields(item.Text()), " ")
	}
	return strings.Join(strings.Fields(item.Find(sel).First().Text()), " ")
}

func (a *HTMLAdapter) href(item *goquery.Selection) string {
	if a.selectors.Link != "" {
		v, _ := item.Find(a.selectors.Link).First().Attr("href")
		return v
	}
	if goquery.NodeName(item) == "a" {
		v, _ := item.Attr("href")
		return v
	}
	v, _ := item.Find("a[href]").First().Attr("href")
	return v
}

// resolveLink makes href absolute against the page URL.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
