package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/immo-dpe/dpe-search/internal/db"
	"github.com/immo-dpe/dpe-search/internal/model"
)

// DefaultPostgresTable is the table used when none is configured.
const DefaultPostgresTable = "public.saved_filters"

// PostgresStore implements FilterStore using a pgx pool.
type PostgresStore struct {
	pool  db.Pool
	table string
}

// NewPostgres connects to Postgres and returns a store writing to table
// (DefaultPostgresTable when empty).
func NewPostgres(ctx context.Context, connString, table string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return newPostgresStore(pool, table), nil
}

func newPostgresStore(pool db.Pool, table string) *PostgresStore {
	if table == "" {
		table = DefaultPostgresTable
	}
	return &PostgresStore{pool: pool, table: db.SanitizeTable(table)}
}

// Migrate implements FilterStore.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			query      JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table))
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements FilterStore.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save implements FilterStore.
func (s *PostgresStore) Save(ctx context.Context, name string, q model.SearchQuery) (*SavedFilter, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := marshalQuery(q)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, query, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			query = EXCLUDED.query,
			updated_at = EXCLUDED.updated_at
		RETURNING id::text, name, query, created_at, updated_at`, s.table),
		uuid.New().String(), name, data, now, now,
	)
	f, err := scanFilter(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: save filter %s", name)
	}
	return f, nil
}

// Get implements FilterStore.
func (s *PostgresStore) Get(ctx context.Context, name string) (*SavedFilter, error) {
	name, err := CleanName(name)
	if err != nil {
		// Save rejects such names, so nothing can be stored under them.
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT id::text, name, query, created_at, updated_at FROM %s WHERE name = $1`, s.table),
		name,
	)
	f, err := scanFilter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get filter %s", name)
	}
	return f, nil
}

// List implements FilterStore.
func (s *PostgresStore) List(ctx context.Context) ([]SavedFilter, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT id::text, name, query, created_at, updated_at FROM %s ORDER BY name`, s.table))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list filters")
	}
	defer rows.Close()

	var out []SavedFilter
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan filter")
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate filters")
}

// Delete implements FilterStore.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, s.table), name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete filter %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("filter not found: %s", name)
	}
	return nil
}
