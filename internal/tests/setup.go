// Package tests holds end-to-end tests that exercise the server through HTTP
// against every configured storage backend.
package tests

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phonegate/portal/internal/db"
)

// RunMigrations applies the embedded migrations.
func RunMigrations(database *sql.DB) error {
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TruncateKV empties the key-value table for a clean test state.
func TruncateKV(ctx context.Context, database *sql.DB) error {
	_, err := database.ExecContext(ctx, "TRUNCATE TABLE kv_entries")
	if err != nil {
		return fmt.Errorf("truncate kv_entries: %w", err)
	}
	return nil
}
