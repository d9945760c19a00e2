// Package storage implements the relational persistence layer: entries,
// triples, canonical entities, aliases, the transaction log, and ingestion
// tasks, plus a lexical full-text index kept synchronized via triggers.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/wagneradl/knowledge-mcp/internal/errs"
)

// Store owns every primary row in the knowledge base and mints exactly one
// transaction row per mutation, in the same atomic batch as the row change.
type Store struct {
	db     *sql.DB
	hasFTS bool
}

// Open opens (or creates) the knowledge store database at path, running
// migrations and probing the embedded engine for full-text search support.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.Internal, err, "create data dir")
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := "file:" + path + sep +
		"_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "open knowledge store")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Internal, err, "ping knowledge store")
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Internal, err, "migrate schema")
	}

	s := &Store{db: db}
	s.hasFTS = probeFTS(db)
	if s.hasFTS {
		if _, err := db.Exec(FTSSchema); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.Internal, err, "create fts schema")
		}
		if _, err := db.Exec(FTSTriggers); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.Internal, err, "create fts triggers")
		}
	}

	return s, nil
}

// OpenMemory opens an in-process, non-durable store — used by tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:?cache=shared")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasFTS reports whether the embedded engine's full-text search index is
// active. The retriever's lexical scorer uses this to pick its strategy.
func (s *Store) HasFTS() bool {
	return s.hasFTS
}

// probeFTS detects at init time whether the embedded engine supports fts5
// by attempting to create and drop a scratch virtual table.
func probeFTS(db *sql.DB) bool {
	_, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS _fts_probe USING fts5(x)`)
	if err != nil {
		return false
	}
	db.Exec(`DROP TABLE IF EXISTS _fts_probe`)
	return true
}

func rowsAffectedError(n int64, notFoundMsg string) error {
	if n == 0 {
		return errs.NotFoundf("%s", notFoundMsg)
	}
	return nil
}
