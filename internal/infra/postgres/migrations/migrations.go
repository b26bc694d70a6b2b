package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set applied by the migrate command and at startup.
var Migrations = migrate.NewMigrations()
