// Package store selects and opens the persistence backend named by the
// configuration.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice.app/internal/auth"
	"backoffice.app/internal/config"
	"backoffice.app/internal/media"
	"backoffice.app/internal/migrate"
	"backoffice.app/internal/store/memory"
	"backoffice.app/internal/store/pg"
	"backoffice.app/internal/store/sqlite"
)

// Backend bundles one adapter behind both ports.
type Backend interface {
	auth.AccountStore
	media.ImageStore
	Ping(ctx context.Context) error
}

// Handle is an opened backend. DB is nil for the memory driver.
type Handle struct {
	Backend
	Driver  string
	DB      *sql.DB
	Dialect migrate.Dialect
}

// Open connects to the configured driver. It does not run migrations.
func Open(ctx context.Context, cfg config.Config) (*Handle, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		return &Handle{Backend: memory.New(), Driver: config.DriverMemory}, nil
	case config.DriverPostgres:
		s, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return &Handle{Backend: s, Driver: cfg.StoreDriver, DB: s.DB(), Dialect: migrate.Postgres}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Handle{Backend: s, Driver: cfg.StoreDriver, DB: s.DB(), Dialect: migrate.SQLite}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Migrator returns a migration manager for SQL backends.
func (h *Handle) Migrator(opts ...migrate.Option) (*migrate.Manager, error) {
	if h.DB == nil {
		return nil, fmt.Errorf("driver %q has no schema to migrate", h.Driver)
	}
	return migrate.NewManager(h.DB, h.Dialect, opts...)
}

// Migrate applies pending migrations; it is a no-op for the memory driver.
func (h *Handle) Migrate(ctx context.Context) ([]string, error) {
	if h.DB == nil {
		return nil, nil
	}
	m, err := h.Migrator()
	if err != nil {
		return nil, err
	}
	return m.Up(ctx)
}

func (h *Handle) Close() error {
	if h.DB == nil {
		return nil
	}
	return h.DB.Close()
}
