package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// SQLiteStore implements FilterStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS saved_filters (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	query      TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Migrate implements FilterStore.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements FilterStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save implements FilterStore.
func (s *SQLiteStore) Save(ctx context.Context, name string, q model.SearchQuery) (*SavedFilter, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := marshalQuery(q)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_filters (id, name, query, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET query = excluded.query, updated_at = excluded.updated_at`,
		uuid.New().String(), name, string(data), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save filter %s", name)
	}

	f, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, eris.Errorf("sqlite: filter %s vanished after save", name)
	}
	return f, nil
}

// Get implements FilterStore.
func (s *SQLiteStore) Get(ctx context.Context, name string) (*SavedFilter, error) {
	name, err := CleanName(name)
	if err != nil {
		// Save rejects such names, so nothing can be stored under them.
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, query, created_at, updated_at FROM saved_filters WHERE name = ?`,
		name,
	)
	f, err := scanFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get filter %s", name)
	}
	return f, nil
}

// List implements FilterStore.
func (s *SQLiteStore) List(ctx context.Context) ([]SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, query, created_at, updated_at FROM saved_filters ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list filters")
	}
	defer rows.Close() //nolint:errcheck

	var out []SavedFilter
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan filter")
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate filters")
}

// Delete implements FilterStore.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_filters WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete filter %s", name)
	}
	return checkRowsAffected(res, "filter", name)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
