package postgres

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by golang-migrate

	"github.com/andreasom/oml-storage-go/internal/logger"
	"github.com/andreasom/oml-storage-go/storage/postgres/migrations"
)

// runMigrations applies the schema migrations against connString, grounded
// on the teacher's golang-migrate + iofs wiring. It relies on Postgres
// advisory locks (taken internally by golang-migrate) to stay safe against
// concurrent callers racing to migrate the same database.
func runMigrations(connString string) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("postgres: open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: "storage_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("postgres: create migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("postgres: open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("postgres: create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("postgres: run migrations: %w", err)
	}

	logger.Info("storage schema migrations applied")
	return nil
}
