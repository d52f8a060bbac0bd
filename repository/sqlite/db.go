// Package sqlite is the single-file record store driver. It backs local and
// CLI deployments where running Postgres and Redis is not worth it.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the latest schema version applied by Open.
const SchemaVersion = 1

// timeLayout is fixed width so that TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps the shared *sql.DB used by every repository in this package.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database file and applies the schema.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection serializes writers, which keeps the proof-list
	// read-modify-write transactions free of SQLITE_BUSY upgrades.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	d := &DB{db: conn}
	if err := d.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close releases the database.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping is used by the connection monitor.
func (d *DB) Ping() error {
	if d == nil || d.db == nil {
		return fmt.Errorf("sqlite: not open")
	}
	return d.db.Ping()
}

func (d *DB) migrate() error {
	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := d.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current); err != nil {
		return fmt.Errorf("read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range schema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		duration   INTEGER NOT NULL CHECK (duration > 0),
		priority   TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id           TEXT PRIMARY KEY,
		task_id      TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		user_id      TEXT NOT NULL,
		start_time   TEXT NOT NULL,
		end_time     TEXT,
		proof_photos TEXT NOT NULL DEFAULT '[]',
		completed    INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		CHECK (end_time IS NULL OR end_time >= start_time),
		CHECK (completed = 0 OR end_time IS NOT NULL)
	);`,
	`CREATE INDEX IF NOT EXISTS sessions_user_start_idx ON sessions (user_id, start_time DESC);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_one_active_idx ON sessions (user_id) WHERE end_time IS NULL;`,
	`CREATE TABLE IF NOT EXISTS streaks (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL UNIQUE,
		current_streak      INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
		longest_streak      INTEGER NOT NULL DEFAULT 0,
		last_completed_date TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		CHECK (longest_streak >= current_streak)
	);`,
	`CREATE TABLE IF NOT EXISTS friendships (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		friend_id  TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at TEXT NOT NULL,
		UNIQUE (user_id, friend_id)
	);`,
	`CREATE TABLE IF NOT EXISTS auth_sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		metadata   TEXT
	);`,
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 100:
		return 100
	}
	return limit
}
