package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationStatus describes the schema version after a migration command.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// MigrateUp applies all pending migrations and reports the resulting version.
func (db *DB) MigrateUp(migrationsPath string) (MigrationStatus, error) {
	m, err := db.newMigrate(migrationsPath)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	return status(m)
}

// MigrateDown rolls back the given number of migrations.
func (db *DB) MigrateDown(migrationsPath string, steps int) (MigrationStatus, error) {
	if steps < 1 {
		return MigrationStatus{}, fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	m, err := db.newMigrate(migrationsPath)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer closeMigrate(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("failed to roll back migrations: %w", err)
	}

	return status(m)
}

// MigrateVersion returns the current migration version.
func (db *DB) MigrateVersion(migrationsPath string) (MigrationStatus, error) {
	m, err := db.newMigrate(migrationsPath)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer closeMigrate(m)

	return status(m)
}

// MigrateReset rolls back every migration. Drops all users and organisations.
func (db *DB) MigrateReset(migrationsPath string) error {
	m, err := db.newMigrate(migrationsPath)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	return nil
}

// ResolveMigrationsPath picks the migrations directory: the explicit path if
// set, then ./migrations, then migrations next to the executable, then the
// container default.
func ResolveMigrationsPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat("migrations"); err == nil {
		if absPath, err := filepath.Abs("migrations"); err == nil {
			return absPath
		}
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "/app/migrations"
}

func status(m *migrate.Migrate) (MigrationStatus, error) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

func closeMigrate(m *migrate.Migrate) {
	_, _ = m.Close()
}

// newMigrate binds migrate to a single pooled connection. Closing the
// returned instance releases that connection and leaves the pool open.
func (db *DB) newMigrate(migrationsPath string) (*migrate.Migrate, error) {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
