package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements.
// Each entry is applied once in order. New migrations are appended at the end.
var migrations = []string{
	// Migration 0: initial schema
	`CREATE TABLE IF NOT EXISTS experiments (
		id         TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		name       TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		experiment_id TEXT NOT NULL REFERENCES experiments(id) ON DELETE CASCADE,
		name          TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'running',
		started_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		ended_at      DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS params (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		key    TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	)`,

	`CREATE TABLE IF NOT EXISTS metrics (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		key         TEXT NOT NULL,
		value       REAL NOT NULL,
		step        INTEGER NOT NULL DEFAULT 0,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		key    TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	)`,

	`CREATE TABLE IF NOT EXISTS model_versions (
		id            TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		name          TEXT NOT NULL,
		version       INTEGER NOT NULL,
		run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		artifact_path TEXT NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (name, version)
	)`,

	`CREATE TABLE IF NOT EXISTS model_aliases (
		name    TEXT NOT NULL,
		alias   TEXT NOT NULL,
		version INTEGER NOT NULL,
		PRIMARY KEY (name, alias)
	)`,

	`CREATE TABLE IF NOT EXISTS embed_cache (
		hash       TEXT PRIMARY KEY,
		provider   TEXT NOT NULL,
		model      TEXT NOT NULL,
		text       TEXT NOT NULL,
		dims       INTEGER NOT NULL,
		embedding  BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_experiment   ON runs(experiment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_metrics_run_key   ON metrics(run_id, key)`,
	`CREATE INDEX IF NOT EXISTS idx_versions_name     ON model_versions(name, version DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started      ON runs(started_at DESC)`,

	// Migration 1: migration tracking table
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// applyMigrations runs any migrations that have not yet been applied.
func applyMigrations(conn *sql.DB) error {
	// Ensure the migration tracking table exists first.
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}

		if _, err := conn.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			return fmt.Errorf("record migration %d: %w", i, err)
		}
	}

	return nil
}

// applyVectorTables creates the sqlite-vec virtual table for the embedding cache.
// Called separately after the vec extension is confirmed loaded.
func applyVectorTables(conn *sql.DB, dimension int) error {
	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_cache USING vec0(
		hash TEXT PRIMARY KEY,
		embedding float[%d]
	)`, dimension)

	if _, err := conn.Exec(stmt); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	return nil
}
