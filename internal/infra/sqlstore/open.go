package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"daily-trivia-service/internal/infra/sqlstore/migrations"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open returns a bun handle for the given driver and DSN.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		return OpenPostgres(dsn), nil
	case DriverSQLite:
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func OpenPostgres(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// OpenSQLite opens dsn with mattn/go-sqlite3. A single connection is used so
// in-memory databases are shared by every query.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, err
	}
	return group, nil
}
