package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"airport-weather-map/pkg/database"
)

// Execer runs a statement, labelled by query type for metrics.
// *database.PostgresDB satisfies it.
type Execer interface {
	ExecContext(ctx context.Context, queryType, query string, args ...interface{}) (sql.Result, error)
}

var _ Execer = (*database.PostgresDB)(nil)

// MigrationFile returns the schema migration for direction, "up" or "down"
func MigrationFile(dir, direction string) (string, error) {
	if direction != "up" && direction != "down" {
		return "", fmt.Errorf("unknown migration direction %q, expected up or down", direction)
	}
	return filepath.Join(dir, fmt.Sprintf("001_create_schema.%s.sql", direction)), nil
}

// Migrate reads the migration for direction from dir and executes it as a
// single statement batch. It returns the path of the file that ran.
func Migrate(ctx context.Context, db Execer, dir, direction string) (string, error) {
	path, err := MigrationFile(dir, direction)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return path, fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.ExecContext(ctx, "migrate_"+direction, string(content)); err != nil {
		return path, fmt.Errorf("failed to execute migration %s: %w", path, err)
	}
	return path, nil
}
