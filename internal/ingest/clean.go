package ingest

import (
	"html"
	"net/url"
	"sort"
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

// trackingParams are query keys stripped from posting links.
var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
	"gh_src": true,
}

// CleanText unescapes entities, replaces non-breaking spaces, and collapses whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalURL lower-cases scheme and host, drops the fragment and tracking
// parameters, and sorts the query so that the same page always yields the
// same dedup key.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	for k := range q {
		sort.Strings(q[k])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// CleanCandidate normalizes the free-text fields and the link of c.
func CleanCandidate(c model.Candidate) model.Candidate {
	c.Title = CleanText(c.Title)
	c.Organization = CleanText(c.Organization)
	c.Location = CleanText(c.Location)
	c.Description = strings.TrimSpace(html.UnescapeString(c.Description))
	c.URL = CanonicalURL(c.URL)
	return c
}
