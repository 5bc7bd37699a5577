// Package store wraps the sqlite-backed relational store that every
// pipeline stage reads from and writes back to (spec.md §3, §6.6). It is
// the sole channel between stages (spec.md §5): no stage shares mutable
// in-memory state with another.
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // cgo-less sqlite driver
)

// Store is a thin handle around the persisted store. Its methods are
// intentionally generic (Close/EnsureSchema/RefreshProjections/
// DropTables/SetInfo; stages open transactions on DB themselves); the
// stage-specific load/save logic lives in each stage's own package so
// that store stays a dumb exchange medium, per spec.md §9's design note
// on the relational store as pipeline bus.
type Store struct {
	DB *sqlx.DB
}

// Open opens (creating if necessary) the sqlite store at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	s := &Store{DB: db}
	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.DB.Close() }

// EnsureSchema creates every table this store owns if it does not yet
// exist, and (re)creates the orthos_all/blocks_all/breaks_all views.
// Safe to call repeatedly: stage re-entry is idempotent by design
// (spec.md §7, Recoverable).
func (s *Store) EnsureSchema() error {
	if _, err := s.DB.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return s.RefreshProjections()
}

// RefreshProjections recreates the derived views. Because they are SQL
// views, any stage that mutates their source tables (most notably the
// Assembly Reorderer rewriting pnum_display, spec.md §4.9) is reflected
// automatically on the next query; this is only needed once per schema
// change, not once per mutation, but stages call it after a bulk rewrite
// for clarity and to match spec.md §4.9's explicit "regenerate" step.
func (s *Store) RefreshProjections() error {
	if _, err := s.DB.Exec(views); err != nil {
		return fmt.Errorf("create views: %w", err)
	}
	return nil
}

// DropTables deletes every row of the named tables, leaving the tables
// themselves in place, e.g. so a stage can rewrite its own output tables
// from scratch on re-entry (spec.md §7, Recoverable). Views over the
// cleared tables are refreshed by the caller via RefreshProjections once
// the new rows are in place.
func (s *Store) DropTables(names ...string) error {
	for _, n := range names {
		if _, err := s.DB.Exec(fmt.Sprintf("DELETE FROM %s", n)); err != nil {
			return fmt.Errorf("clear table %s: %w", n, err)
		}
	}
	return nil
}

// SetInfo records one pipeline-run metadata key/value pair in the info
// table, replacing any earlier value for the key. The CLI stages use it
// only to record their own name under "last_stage".
func (s *Store) SetInfo(key, value string) error {
	_, err := s.DB.Exec(
		`INSERT INTO info(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}
