package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed "migrations"
var migrationsFS embed.FS

// Migrations is the embedded schema, rooted at the migrations directory.
func Migrations() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

func newProvider(conn *sql.DB) (*goose.Provider, error) {
	fsys, err := Migrations()
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectPostgres, conn, fsys)
}

// Migrate applies pending migrations and returns how many ran. conn is a
// database/sql handle opened with lib/pq.
func Migrate(ctx context.Context, conn *sql.DB, logger *zap.SugaredLogger) (int, error) {
	provider, err := newProvider(conn)
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		logger.Infow("migration applied", "version", r.Source.Version, "file", r.Source.Path, "took", r.Duration)
	}
	if err != nil {
		return len(results), fmt.Errorf("migrate up: %w", err)
	}
	return len(results), nil
}

// Rollback undoes the most recent migration.
func Rollback(ctx context.Context, conn *sql.DB, logger *zap.SugaredLogger) error {
	provider, err := newProvider(conn)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	r, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if r != nil {
		logger.Infow("migration rolled back", "version", r.Source.Version, "file", r.Source.Path)
	}
	return nil
}
