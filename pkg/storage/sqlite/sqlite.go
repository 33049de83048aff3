// Package sqlite opens the SQLite database shared by the findings and report
// stores and applies the schema.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Memory is the DSN of a private in-memory database.
const Memory = ":memory:"

// Open opens the database at path, creating its directory. A single
// connection is used so writers never contend on the file lock.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: open: empty path")
	}
	dsn := path
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create db directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if path == Memory {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS endpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		protocol TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL DEFAULT '',
		port INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL DEFAULT '',
		query TEXT NOT NULL DEFAULT '',
		fragment TEXT NOT NULL DEFAULT '',
		product_id INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		severity TEXT NOT NULL,
		severity_score INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		mitigation TEXT NOT NULL DEFAULT '',
		impact TEXT NOT NULL DEFAULT '',
		refs TEXT NOT NULL DEFAULT '',
		component_name TEXT NOT NULL DEFAULT '',
		component_version TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		line INTEGER NOT NULL DEFAULT 0,
		cwe INTEGER NOT NULL DEFAULT 0,
		date TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		verified INTEGER NOT NULL DEFAULT 0,
		false_p INTEGER NOT NULL DEFAULT 0,
		duplicate INTEGER NOT NULL DEFAULT 0,
		out_of_scope INTEGER NOT NULL DEFAULT 0,
		nb_occurences INTEGER NOT NULL DEFAULT 0,
		product_id INTEGER NOT NULL DEFAULT 0,
		test_id INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS finding_tags (
		finding_id INTEGER NOT NULL REFERENCES findings(id) ON DELETE CASCADE,
		tag TEXT NOT NULL,
		PRIMARY KEY (finding_id, tag)
	);`,
	`CREATE TABLE IF NOT EXISTS finding_endpoints (
		finding_id INTEGER NOT NULL REFERENCES findings(id) ON DELETE CASCADE,
		endpoint_id INTEGER NOT NULL REFERENCES endpoints(id) ON DELETE CASCADE,
		PRIMARY KEY (finding_id, endpoint_id)
	);`,
	`CREATE TABLE IF NOT EXISTS finding_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		finding_id INTEGER NOT NULL REFERENCES findings(id) ON DELETE CASCADE,
		author TEXT NOT NULL DEFAULT '',
		entry TEXT NOT NULL,
		date TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS finding_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		finding_id INTEGER NOT NULL REFERENCES findings(id) ON DELETE CASCADE,
		caption TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		format TEXT NOT NULL,
		requester TEXT NOT NULL DEFAULT '',
		task_id TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL DEFAULT '',
		finding_notes INTEGER NOT NULL DEFAULT 0,
		finding_images INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		file TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity_score DESC, id);`,
	`CREATE INDEX IF NOT EXISTS idx_findings_product ON findings(product_id);`,
	`CREATE INDEX IF NOT EXISTS idx_endpoints_product ON endpoints(product_id);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);`,
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// OpenAndMigrate opens the database and applies the schema.
func OpenAndMigrate(ctx context.Context, path string) (*sql.DB, error) {
	db, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
