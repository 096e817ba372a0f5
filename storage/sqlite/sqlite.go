// Package sqlite provides a durable core.Storage implementation backed by
// SQLite (via the CGo-free modernc.org driver). Records are stored as JSON
// documents keyed by (table, id), so the core's four storage capabilities map
// onto plain key/value rows and no component above this package ever sees
// SQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/simforge/worldline/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	tbl  TEXT NOT NULL,
	id   TEXT NOT NULL,
	doc  TEXT NOT NULL,
	PRIMARY KEY (tbl, id)
);`

// Store is a SQLite-backed core.Storage. A single *sql.DB handle is safe for
// concurrent use; SQLite serializes writers internally.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a store at the given SQLite DSN, e.g. a
// file path or ":memory:".
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// New returns a Store bound to an existing database handle. The schema is
// applied if missing.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Insert upserts a record keyed by its "id" field.
func (s *Store) Insert(ctx context.Context, table core.Table, rec core.Record) error {
	id, ok := rec["id"].(string)
	if !ok || id == "" {
		return &core.ValidationError{Field: "id", Reason: "record id must be a non-empty string"}
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("insert %s/%s: marshal: %w", table, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (tbl, id, doc) VALUES (?, ?, ?)
		 ON CONFLICT (tbl, id) DO UPDATE SET doc = excluded.doc`,
		string(table), id, string(doc))
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", table, id, err)
	}
	return nil
}

// GetByID returns the record with the given id, or zero records if absent.
func (s *Store) GetByID(ctx context.Context, table core.Table, id string) ([]core.Record, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE tbl = ? AND id = ?`,
		string(table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	rec, err := decode(doc)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	return []core.Record{rec}, nil
}

// Query returns every record in the table matching pred. Filtering happens in
// Go after the full table read; callers narrow tables, not queries.
func (s *Store) Query(ctx context.Context, table core.Table, pred func(core.Record) bool) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM records WHERE tbl = ? ORDER BY id`, string(table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("query %s: scan: %w", table, err)
		}
		rec, err := decode(doc)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: rows: %w", table, err)
	}
	return out, nil
}

// Delete removes the record with the given id. Deleting an absent id is a
// no-op.
func (s *Store) Delete(ctx context.Context, table core.Table, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE tbl = ? AND id = ?`, string(table), id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	return nil
}

func decode(doc string) (core.Record, error) {
	var rec core.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal doc: %w", err)
	}
	return rec, nil
}
