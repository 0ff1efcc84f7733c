package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amishk599/acadjobs/internal/model"
)

// timeLayout is fixed-width so that lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps postings in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// postings table and its indexes exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; the scheduler and the API share this handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS postings (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			title        TEXT NOT NULL,
			organization TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL,
			location     TEXT NOT NULL DEFAULT '',
			deadline     TEXT,
			category     TEXT NOT NULL DEFAULT '',
			summary      TEXT,
			created_at   TEXT NOT NULL,
			active       INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS postings_active_org_url
			ON postings (organization, url) WHERE active = 1`,
		`CREATE INDEX IF NOT EXISTS postings_created_at ON postings (created_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating postings schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Insert stores p. A conflict on the active (organization, url) index is
// reported as model.ErrDuplicate.
func (s *SQLiteStore) Insert(ctx context.Context, p model.Posting) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO postings (`+postingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		p.ID, p.Title, p.Organization, p.Description, p.URL, p.Location,
		formatTimePtr(p.Deadline), string(p.Category), nullString(p.Summary),
		p.CreatedAt.UTC().Format(timeLayout), p.Active,
	)
	if err != nil {
		return fmt.Errorf("inserting posting %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting posting %s: %w", p.ID, err)
	}
	if n == 0 {
		return model.ErrDuplicate
	}
	return nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, id string) (model.Posting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postingColumns+` FROM postings WHERE id = ?`, id)
	p, err := scanSQLitePosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Posting{}, model.ErrNotFound
	}
	if err != nil {
		return model.Posting{}, fmt.Errorf("finding posting %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) Find(ctx context.Context, q model.Query) ([]model.Posting, error) {
	b := newBuilder(sqliteDialect).filter(q.Filter)
	rows, err := s.db.QueryContext(ctx, b.selectSQL(q), b.args...)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		p, err := scanSQLitePosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating postings: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch model.Patch) error {
	b := newBuilder(sqliteDialect)
	query := b.updateSQL(id, patch)
	if query == "" {
		_, err := s.FindByID(ctx, id)
		return err
	}
	res, err := s.db.ExecContext(ctx, query, b.args...)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("updating posting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating posting %s: %w", id, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports a rejected write on a UNIQUE index, such as
// reactivating a posting whose (organization, url) key is taken.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func (s *SQLiteStore) Count(ctx context.Context, f model.Filter) (int, error) {
	b := newBuilder(sqliteDialect).filter(f)
	var n int
	if err := s.db.QueryRowContext(ctx, b.countSQL(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) GroupCount(ctx context.Context, field model.GroupField, f model.Filter, limit int) ([]model.GroupCount, error) {
	b := newBuilder(sqliteDialect).filter(f)
	query, err := b.groupSQL(field, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("grouping postings by %s: %w", field, err)
	}
	defer rows.Close()

	var out []model.GroupCount
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePosting(row rowScanner) (model.Posting, error) {
	var (
		p        model.Posting
		deadline sql.NullString
		summary  sql.NullString
		category string
		created  string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Organization, &p.Description, &p.URL, &p.Location,
		&deadline, &category, &summary, &created, &p.Active)
	if err != nil {
		return model.Posting{}, err
	}

	p.Category = model.Category(category)
	if summary.Valid {
		s := summary.String
		p.Summary = &s
	}
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return model.Posting{}, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	if deadline.Valid && deadline.String != "" {
		d, err := time.Parse(timeLayout, deadline.String)
		if err != nil {
			return model.Posting{}, fmt.Errorf("parsing deadline %q: %w", deadline.String, err)
		}
		p.Deadline = &d
	}
	return p, nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
