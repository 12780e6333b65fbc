package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for the trivia store. Each file registers itself
// from init; bun derives the migration name from the file name.
var Migrations = migrate.NewMigrations()
