// Package sqlite opens the corpus database and applies its migrations.
// Uses modernc.org/sqlite, a pure-Go driver (no CGO required).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// NewDB opens (or creates) a SQLite database at path with:
//   - WAL journal mode (readers are not blocked while a corpus is stored)
//   - 5-second busy timeout
//   - Synchronous=NORMAL
//
// Corpora can be large text blobs, so the page cache is raised to 64MB.
// Returns an error if the parent directory does not exist (will not create it).
func NewDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=cache_size(-64000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	// Each :memory: connection is its own database; pin to one.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}

// Open is NewDB followed by MigrateUp; the handle is closed if migration fails.
func Open(path string) (*sql.DB, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
