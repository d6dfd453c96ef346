// Package migrate applies the embedded schema migrations.
package migrate

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migrate brings the given database up to the latest schema version.
func Migrate(db *sqlx.DB, dbname string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return fmt.Errorf("creating source from fs: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbname, driver)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}

	return nil
}
