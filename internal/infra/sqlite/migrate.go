package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// MigrateUp applies all pending *.up.sql migrations in filename order, one
// transaction each. Already-applied versions are skipped.
func MigrateUp(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("migrate: ensure migrations table: %w", err)
	}

	files, err := loadMigrationFiles()
	if err != nil {
		return fmt.Errorf("migrate: load files: %w", err)
	}

	for _, f := range files {
		applied, checkErr := isMigrationApplied(db, f.version)
		if checkErr != nil {
			return fmt.Errorf("migrate: check applied %d: %w", f.version, checkErr)
		}
		if applied {
			continue
		}
		if applyErr := applyMigration(db, f); applyErr != nil {
			return fmt.Errorf("migrate: apply %s: %w", f.name, applyErr)
		}
	}

	return nil
}

// MigrationVersion returns the highest applied version, 0 when none.
func MigrationVersion(db *sql.DB) (int, error) {
	if err := ensureMigrationsTable(db); err != nil {
		return 0, fmt.Errorf("migrate: ensure migrations table: %w", err)
	}

	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("migrate: query version: %w", err)
	}
	return version, nil
}

type migrationFile struct {
	version int
	name    string // e.g. "001_corpus.up.sql"
	sql     string
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER NOT NULL PRIMARY KEY,
			name        TEXT    NOT NULL,
			applied_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func loadMigrationFiles() ([]migrationFile, error) {
	entries, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}

	files := make([]migrationFile, 0, len(entries))
	for _, p := range entries {
		content, readErr := migrations.ReadFile(p)
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", p, readErr)
		}
		name := path.Base(p)
		version, parseErr := versionFromFilename(name)
		if parseErr != nil {
			return nil, parseErr
		}
		files = append(files, migrationFile{version: version, name: name, sql: string(content)})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// versionFromFilename extracts the numeric prefix: "001_corpus.up.sql" → 1.
func versionFromFilename(name string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= 0 {
		return 0, fmt.Errorf("migration %q: missing numeric version prefix", name)
	}
	if !strings.HasSuffix(name, ".up.sql") {
		return 0, fmt.Errorf("migration %q: not an up migration", name)
	}
	return version, nil
}

func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyMigration(db *sql.DB, f migrationFile) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	if _, execErr := tx.Exec(f.sql); execErr != nil {
		return fmt.Errorf("exec SQL: %w", execErr)
	}
	if _, execErr := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", f.version, f.name); execErr != nil {
		return fmt.Errorf("record migration: %w", execErr)
	}
	return tx.Commit()
}
