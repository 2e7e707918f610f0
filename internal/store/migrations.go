package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the history tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS process_history (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		process_id     TEXT NOT NULL,
		name           TEXT NOT NULL DEFAULT '',
		from_state     TEXT NOT NULL DEFAULT '',
		to_state       TEXT NOT NULL,
		remaining_time INTEGER NOT NULL DEFAULT 0,
		observed_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_process_id ON process_history(process_id)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
