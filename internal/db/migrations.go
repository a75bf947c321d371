package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent so every start can apply it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id          TEXT PRIMARY KEY,
		form_number TEXT NOT NULL UNIQUE,
		revision    BIGINT NOT NULL DEFAULT 1,
		document    JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS patients_created_at_idx ON patients (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS patients_visits_idx ON patients USING GIN ((document->'visits') jsonb_path_ops)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		user_type  TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the patients and employees tables if they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
