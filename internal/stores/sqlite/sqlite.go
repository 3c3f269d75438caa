// Package sqlite provides a SQLite-backed store bundle for the dedup
// engine, using the pure-Go modernc.org/sqlite driver. Records persist
// as JSON documents with indexed columns for the groupable fields;
// locations, reviews, taxonomy, and claims live in their own tables so
// optional-table semantics work the same as in a full deployment.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          INTEGER PRIMARY KEY,
	title       TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	data        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_title ON records(title);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);

CREATE TABLE IF NOT EXISTS locations (
	record_id INTEGER PRIMARY KEY,
	address   TEXT NOT NULL DEFAULT '',
	city      TEXT NOT NULL DEFAULT '',
	state     TEXT NOT NULL DEFAULT '',
	zip       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reviews (
	id         INTEGER PRIMARY KEY,
	record_id  INTEGER NOT NULL,
	rating     INTEGER NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'approved',
	created_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_reviews_record ON reviews(record_id);

CREATE TABLE IF NOT EXISTS terms (
	taxonomy TEXT NOT NULL,
	term_id  INTEGER NOT NULL,
	name     TEXT NOT NULL,
	PRIMARY KEY (taxonomy, term_id)
);

CREATE TABLE IF NOT EXISTS term_assignments (
	taxonomy  TEXT NOT NULL,
	term_id   INTEGER NOT NULL,
	record_id INTEGER NOT NULL,
	PRIMARY KEY (taxonomy, term_id, record_id)
);
CREATE INDEX IF NOT EXISTS idx_assignments_record ON term_assignments(record_id);

CREATE TABLE IF NOT EXISTS claims (
	record_id  INTEGER PRIMARY KEY,
	owner_id   INTEGER NOT NULL,
	claimed_at TEXT NOT NULL DEFAULT ''
);
`

// Store is a SQLite-backed store bundle. One Store implements every
// collaborator interface the engine consumes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite database at path and applies
// the schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writes per connection; a single
	// connection avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TableExists reports whether a table is present in the database.
func (s *Store) TableExists(ctx context.Context, name string) bool {
	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&found)
	return err == nil
}

// DropTable removes a table, for exercising missing-table degradation.
func (s *Store) DropTable(ctx context.Context, name string) error {
	switch name {
	case "locations", "reviews":
	default:
		return fmt.Errorf("table %q cannot be dropped", name)
	}
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+name)
	return err
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids to driver arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
