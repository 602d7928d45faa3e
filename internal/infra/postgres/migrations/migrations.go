package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the Postgres schema, one registered file per change.
var Migrations = migrate.NewMigrations()
