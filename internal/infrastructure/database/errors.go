package database

import "errors"

var (
	// ErrNoPath is returned by Open when the configuration has no file path.
	ErrNoPath = errors.New("database: path is required")

	// ErrNoDownMigration is returned by MigrateDown when the latest applied
	// migration has no .down.sql counterpart.
	ErrNoDownMigration = errors.New("database: migration has no down SQL")

	// ErrUnknownMigration is returned when schema_migrations records a
	// version that is not present in the migration filesystem.
	ErrUnknownMigration = errors.New("database: applied migration not found")
)
