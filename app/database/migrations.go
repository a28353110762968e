package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SchemaStatus describes the schema after RunMigrations.
type SchemaStatus struct {
	Version uint
	Applied bool // at least one migration ran
}

// RunMigrations brings the fetch-state and run-history tables up to date.
// A database left dirty by an interrupted migration is refused.
func RunMigrations(db *DB) (SchemaStatus, error) {
	var status SchemaStatus

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return status, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return status, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return status, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	before, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		before = 0
	case err != nil:
		return status, fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return status, fmt.Errorf("database schema is dirty at version %d", before)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return status, fmt.Errorf("failed to apply migrations: %w", err)
	}

	after, _, err := m.Version()
	if err != nil {
		return status, fmt.Errorf("failed to read schema version: %w", err)
	}

	status.Version = after
	status.Applied = after != before
	return status, nil
}
