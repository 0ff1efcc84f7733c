package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/amishk599/acadjobs/internal/model"
)

// uniqueViolation is the SQLSTATE of a rejected write on a UNIQUE index.
const uniqueViolation = "23505"

// PostgresStore keeps postings in PostgreSQL through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the postings schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS postings (
			seq          BIGSERIAL PRIMARY KEY,
			id           TEXT NOT NULL UNIQUE,
			title        TEXT NOT NULL,
			organization TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL,
			location     TEXT NOT NULL DEFAULT '',
			deadline     TIMESTAMPTZ,
			category     TEXT NOT NULL DEFAULT '',
			summary      TEXT,
			created_at   TIMESTAMPTZ NOT NULL,
			active       BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS postings_active_org_url
			ON postings (organization, url) WHERE active`,
		`CREATE INDEX IF NOT EXISTS postings_created_at ON postings (created_at)`,
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating postings schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p model.Posting) error {
	tag, err := s.pool.Exec(ctx, `INSERT INTO postings (`+postingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`,
		p.ID, p.Title, p.Organization, p.Description, p.URL, p.Location,
		p.Deadline, string(p.Category), p.Summary, p.CreatedAt.UTC(), p.Active,
	)
	if err != nil {
		return fmt.Errorf("inserting posting %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDuplicate
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (model.Posting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)
	p, err := scanPostgresPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Posting{}, model.ErrNotFound
	}
	if err != nil {
		return model.Posting{}, fmt.Errorf("finding posting %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Find(ctx context.Context, q model.Query) ([]model.Posting, error) {
	b := newBuilder(postgresDialect).filter(q.Filter)
	rows, err := s.pool.Query(ctx, b.selectSQL(q), b.args...)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		p, err := scanPostgresPosting(rows)
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

func (s *PostgresStore) Update(ctx context.Context, id string, patch model.Patch) error {
	b := newBuilder(postgresDialect)
	query := b.updateSQL(id, patch)
	if query == "" {
		_, err := s.FindByID(ctx, id)
		return err
	}
	tag, err := s.pool.Exec(ctx, query, b.args...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("updating posting %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, f model.Filter) (int, error) {
	b := newBuilder(postgresDialect).filter(f)
	var n int
	if err := s.pool.QueryRow(ctx, b.countSQL(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GroupCount(ctx context.Context, field model.GroupField, f model.Filter, limit int) ([]model.GroupCount, error) {
	b := newBuilder(postgresDialect).filter(f)
	query, err := b.groupSQL(field, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, b.args...)
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresPosting(row rowScanner) (model.Posting, error) {
	var (
		p        model.Posting
		category string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Organization, &p.Description, &p.URL, &p.Location,
		&p.Deadline, &category, &p.Summary, &p.CreatedAt, &p.Active)
	if err != nil {
		return model.Posting{}, err
	}
	p.Category = model.Category(category)
	p.CreatedAt = p.CreatedAt.UTC()
	if p.Deadline != nil {
		d := p.Deadline.UTC()
		p.Deadline = &d
	}
	return p, nil
}
