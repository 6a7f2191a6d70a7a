// Package automigrate applies pending SQL migrations at server startup. It
// shares the schema_migrations table with the migrate CLI, so either tool can
// bring a database up to date.
package automigrate

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Run applies all pending up migrations from the given directory.
func Run(db *sql.DB, migrationsDir string) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	pending, err := pendingMigrations(migrationsDir, applied)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		log.Printf("✅ Database up to date (%d migrations applied)", len(applied))
		return nil
	}

	// golang-migrate's table carries a NOT NULL dirty column; ours does not.
	// Detect which shape we are writing into.
	dirtyColumn, err := hasDirtyColumn(db)
	if err != nil {
		return err
	}
	insertSQL := "INSERT INTO schema_migrations (version) VALUES ($1)"
	if dirtyColumn {
		insertSQL = "INSERT INTO schema_migrations (version, dirty) VALUES ($1, false)"
	}

	log.Printf("📦 Applying %d pending migration(s)...", len(pending))
	for _, m := range pending {
		path := filepath.Join(migrationsDir, m.name)
		sqlBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", m.name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", m.name, err)
		}

		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			// A schema created outside this tool trips "already exists";
			// record the version instead of failing startup.
			errStr := err.Error()
			if strings.Contains(errStr, "already exists") || strings.Contains(errStr, "duplicate key") {
				log.Printf("  ⏭️  Skipped (already applied): %d", m.version)
				if _, err := db.Exec(insertSQL+" ON CONFLICT DO NOTHING", m.version); err != nil {
					return fmt.Errorf("record skipped %s: %w", m.name, err)
				}
				continue
			}
			return fmt.Errorf("apply %s: %w", m.name, err)
		}

		if _, err := tx.Exec(insertSQL, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.name, err)
		}

		log.Printf("  ✅ Applied: %d", m.version)
	}

	log.Printf("✅ All migrations applied (%d new, %d total)", len(pending), len(applied)+len(pending))
	return nil
}

type migration struct {
	name    string
	version int
}

func pendingMigrations(migrationsDir string, applied map[int]bool) ([]migration, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var pending []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		parts := strings.SplitN(name, "_", 2)
		ver, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		if !applied[ver] {
			pending = append(pending, migration{name: name, version: ver})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

func hasDirtyColumn(db *sql.DB) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_name = 'schema_migrations' AND column_name = 'dirty'
	)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("inspect schema_migrations: %w", err)
	}
	return exists, nil
}
