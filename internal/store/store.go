// Package store persists named search filters.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// SavedFilter is a named, reusable search query.
type SavedFilter struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Query     model.SearchQuery `json:"query"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FilterStore is a name-keyed store of search queries. A query read back is
// equal to the one saved.
type FilterStore interface {
	// Save creates the filter or replaces the query of an existing one with
	// the same name, returning the stored row.
	Save(ctx context.Context, name string, q model.SearchQuery) (*SavedFilter, error)

	// Get returns nil, nil when no filter has that name.
	Get(ctx context.Context, name string) (*SavedFilter, error)

	// List returns every filter ordered by name.
	List(ctx context.Context) ([]SavedFilter, error)

	// Delete removes a filter. Deleting an unknown name is an error.
	Delete(ctx context.Context, name string) error

	Migrate(ctx context.Context) error
	Close() error
}

const maxNameLen = 128

// CleanName trims name and rejects empty or oversized names.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", eris.New("store: filter name is required")
	}
	if len(name) > maxNameLen {
		return "", eris.Errorf("store: filter name longer than %d bytes", maxNameLen)
	}
	return name, nil
}

func marshalQuery(q model.SearchQuery) ([]byte, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal query")
	}
	return data, nil
}

func unmarshalQuery(data []byte, q *model.SearchQuery) error {
	if err := json.Unmarshal(data, q); err != nil {
		return eris.Wrap(err, "store: unmarshal query")
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFilter(row scannable) (*SavedFilter, error) {
	var f SavedFilter
	var queryJSON []byte
	if err := row.Scan(&f.ID, &f.Name, &queryJSON, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalQuery(queryJSON, &f.Query); err != nil {
		return nil, err
	}
	return &f, nil
}
