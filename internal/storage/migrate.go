package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"journal/internal/log"
)

// MigrationsTable records the applied version of the kv schema.
const MigrationsTable = "kv_schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema is returned when a previous migration stopped halfway and the
// file needs manual repair.
var ErrDirtySchema = errors.New("storage: kv schema is dirty")

// migrateKV brings the kv table at dbPath up to date and returns the schema
// version now in place. The migrator gets its own handle because closing it
// closes the handle it was given.
func migrateKV(dbPath string, logger *log.Logger) (uint, error) {
	handle, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open kv schema handle: %w", err)
	}
	defer handle.Close()

	driver, err := sqlite.WithInstance(handle, &sqlite.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return 0, fmt.Errorf("kv schema driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("kv schema source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("kv schema migrator: %w", err)
	}
	defer m.Close()

	before, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		before = 0
	case err != nil:
		return 0, fmt.Errorf("read kv schema version: %w", err)
	case dirty:
		return before, fmt.Errorf("%w at version %d", ErrDirtySchema, before)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, fmt.Errorf("migrate kv schema: %w", err)
	}

	after, _, err := m.Version()
	if err != nil {
		return before, fmt.Errorf("read kv schema version: %w", err)
	}
	if after != before {
		logger.Info("Migrated kv schema", "from", before, "to", after, "path", dbPath)
	}
	return after, nil
}
