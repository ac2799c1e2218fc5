package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// migrations is the ordered migration chain. Append only.
var migrations = []migration{
	{
		version:     1,
		description: "portal session cache",
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS portal_session (
		token_hash TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		staff_id TEXT NOT NULL DEFAULT '',
		staff_name TEXT NOT NULL DEFAULT '',
		portal TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);`)
			return err
		},
	},
	{
		version:     2,
		description: "session expiry index",
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_portal_session_created_at ON portal_session(created_at)`)
			return err
		},
	},
	{
		version:     3,
		description: "consumed form tokens",
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS form_token (
		token TEXT PRIMARY KEY,
		session_hash TEXT NOT NULL,
		consumed_at TEXT NOT NULL
	);`)
			return err
		},
	},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied version, or 0 for an untracked database.
// PRE: db is a valid database connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion. Each step runs in
// its own transaction together with its version row.
// PRE: db is a valid database connection
// POST: All pending migrations applied, or an error naming the failing step
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", m.version, err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version, description) VALUES (?, ?)`, m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("schema_migrated", "db", dbPath, "version", m.version, "description", m.description)
	}
	return nil
}
