package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amishk599/acadjobs/internal/model"
)

const postingColumns = `id, title, organization, description, url, location, deadline, category, summary, created_at, active`

// dialect captures the SQL differences between the sqlite and postgres stores.
type dialect struct {
	like     string // case-insensitive pattern operator
	trueLit  string
	noLimit  string
	position func(n int) string
}

var sqliteDialect = dialect{
	like:     "LIKE",
	trueLit:  "1",
	noLimit:  "-1",
	position: func(int) string { return "?" },
}

var postgresDialect = dialect{
	like:     "ILIKE",
	trueLit:  "TRUE",
	noLimit:  "ALL",
	position: func(n int) string { return "$" + strconv.Itoa(n) },
}

// builder accumulates WHERE conditions and their positional arguments.
type builder struct {
	d     dialect
	conds []string
	args  []any
}

func newBuilder(d dialect) *builder {
	return &builder{d: d}
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.d.position(len(b.args))
}

func (b *builder) likeCond(column, needle string) string {
	return fmt.Sprintf(`%s %s %s ESCAPE '\'`, column, b.d.like, b.arg(likePattern(needle)))
}

func (b *builder) filter(f model.Filter) *builder {
	if f.ActiveOnly {
		b.conds = append(b.conds, "active = "+b.d.trueLit)
	}
	if f.Organization != "" {
		b.conds = append(b.conds, "organization = "+b.arg(f.Organization))
	}
	if f.URL != "" {
		b.conds = append(b.conds, "url = "+b.arg(f.URL))
	}
	if f.Category != "" {
		b.conds = append(b.conds, "category = "+b.arg(string(f.Category)))
	}
	if f.LocationLike != "" {
		b.conds = append(b.conds, b.likeCond("location", f.LocationLike))
	}
	if f.CategoryLike != "" {
		b.conds = append(b.conds, b.likeCond("category", f.CategoryLike))
	}
	if f.OrganizationLike != "" {
		b.conds = append(b.conds, b.likeCond("organization", f.OrganizationLike))
	}
	if f.Search != "" {
		b.conds = append(b.conds, "("+b.likeCond("title", f.Search)+
			" OR "+b.likeCond("description", f.Search)+
			" OR "+b.likeCond("COALESCE(summary, '')", f.Search)+")")
	}
	if f.MissingSummary {
		b.conds = append(b.conds, "(summary IS NULL OR summary = '')")
	}
	return b
}

func (b *builder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func (b *builder) selectSQL(q model.Query) string {
	var sb strings.Builder
	sb.WriteString("SELECT " + postingColumns + " FROM postings")
	sb.WriteString(b.where())
	if q.Order == model.NewestFirst {
		sb.WriteString(" ORDER BY created_at DESC, seq DESC")
	} else {
		sb.WriteString(" ORDER BY created_at ASC, seq ASC")
	}
	b.page(&sb, q.Limit, q.Skip)
	return sb.String()
}

func (b *builder) countSQL() string {
	return "SELECT COUNT(*) FROM postings" + b.where()
}

func (b *builder) groupSQL(field model.GroupField, limit int) (string, error) {
	col, err := groupColumn(field)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT %s, COUNT(*) AS n FROM postings", col))
	sb.WriteString(b.where())
	sb.WriteString(fmt.Sprintf(" GROUP BY %s ORDER BY n DESC, %s ASC", col, col))
	b.page(&sb, limit, 0)
	return sb.String(), nil
}

func (b *builder) page(sb *strings.Builder, limit, skip int) {
	switch {
	case limit > 0:
		sb.WriteString(" LIMIT " + b.arg(limit))
	case skip > 0:
		sb.WriteString(" LIMIT " + b.d.noLimit)
	}
	if skip > 0 {
		sb.WriteString(" OFFSET " + b.arg(skip))
	}
}

// updateSQL returns "" when the patch sets nothing.
func (b *builder) updateSQL(id string, p model.Patch) string {
	var sets []string
	if p.Summary != nil {
		sets = append(sets, "summary = "+b.arg(*p.Summary))
	}
	if p.Category != nil {
		sets = append(sets, "category = "+b.arg(string(*p.Category)))
	}
	if p.Active != nil {
		sets = append(sets, "active = "+b.arg(*p.Active))
	}
	if len(sets) == 0 {
		return ""
	}
	return "UPDATE postings SET " + strings.Join(sets, ", ") + " WHERE id = " + b.arg(id)
}

func groupColumn(field model.GroupField) (string, error) {
	switch field {
	case model.GroupByCategory:
		return "category", nil
	case model.GroupByOrganization:
		return "organization", nil
	default:
		return "", fmt.Errorf("unsupported group field %q", field)
	}
}

// likePattern wraps needle in wildcards, escaping LIKE metacharacters.
func likePattern(needle string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(needle) + "%"
}
