// Package migration wraps golang-migrate for the two databases this service
// owns schemas in: the internal CRM database and the public catalog database.
// Each target keeps its own migrations directory and version table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Target names a database whose schema this service migrates.
type Target string

const (
	// TargetInternal is the CRM database (companies, communities, homes...).
	TargetInternal Target = "internal"
	// TargetCatalog is the public catalog database (public_communities, public_homes).
	TargetCatalog Target = "catalog"
)

// Dir returns the migrations subdirectory for the target under root.
func (t Target) Dir(root string) string {
	return filepath.Join(root, string(t))
}

// Migrator runs migrations for a single target database.
type Migrator struct {
	target  Target
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New creates a Migrator over an open connection. migrationsRoot is the
// directory holding one subdirectory per target.
func New(target Target, db *sql.DB, migrationsRoot string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres driver for %s: %w", target, err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+target.Dir(migrationsRoot), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance for %s: %w", target, err)
	}

	return &Migrator{
		target:  target,
		migrate: m,
		logger:  logger.With(zap.String("migration_target", string(target))),
	}, nil
}

// Target returns the database this migrator manages.
func (m *Migrator) Target() Target {
	return m.target
}

// apply runs one migrate operation, treating ErrNoChange as success and
// logging the resulting schema version.
func (m *Migrator) apply(op string, fn func() error) error {
	err := fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info("Schema already at requested state")
		return nil
	case err != nil:
		return fmt.Errorf("%s failed for %s: %w", op, m.target, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations applied",
		zap.String("operation", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Up runs all pending migrations.
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up")
	return m.apply("up", m.migrate.Up)
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	m.logger.Info("Running migrations down")
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations (positive = up, negative = down).
func (m *Migrator) Steps(n int) error {
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	return m.apply("steps", func() error { return m.migrate.Steps(n) })
}

// Version returns the current migration version; a never-migrated database
// reports version 0, clean.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version for %s: %w", m.target, err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running migrations. Only
// for recovering a dirty version table.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d for %s: %w", version, m.target, err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("close source for %s: %w", m.target, sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close database for %s: %w", m.target, dbErr)
	}
	return nil
}

// UpAll runs Up on every migrator in order, stopping at the first failure.
// The internal database migrates before the catalog so a half-finished run
// never leaves catalog tables ahead of the CRM schema they mirror.
func UpAll(migrators ...*Migrator) error {
	for _, m := range migrators {
		if err := m.Up(); err != nil {
			return err
		}
	}
	return nil
}
