package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies every statement in order. Statements are idempotent, and
// ALTER TABLE additions that already ran are skipped.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS analytics_sessions (
		id               TEXT PRIMARY KEY,
		start_time       TEXT NOT NULL,
		end_time         TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		converted        INTEGER NOT NULL DEFAULT 0,
		clicked_course   TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_analytics_sessions_start ON analytics_sessions(start_time)`,

	`CREATE TABLE IF NOT EXISTS search_intents (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES analytics_sessions(id) ON DELETE CASCADE,
		term       TEXT NOT NULL,
		period     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_search_intents_session ON search_intents(session_id, id)`,

	// Surfaces tag their sessions (cli, http, mcp).
	`ALTER TABLE analytics_sessions ADD COLUMN client_tag TEXT NOT NULL DEFAULT ''`,
}
