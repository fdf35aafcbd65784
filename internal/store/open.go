package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/immo-dpe/dpe-search/internal/db"
)

// Config selects and configures the FilterStore backend.
type Config struct {
	Driver      string        `mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string        `mapstructure:"database_url"`
	Table       string        `mapstructure:"table"`
	Pool        db.PoolConfig `mapstructure:"pool"`
}

// Open returns a migrated FilterStore for cfg.
func Open(ctx context.Context, cfg Config) (FilterStore, error) {
	var (
		st  FilterStore
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Table, &cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
