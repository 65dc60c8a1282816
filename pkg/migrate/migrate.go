// Package migrate applies versioned SQL migrations to the SQLite
// configuration database. Migrations live on disk as paired
// NNN_name.up.sql / NNN_name.down.sql files; applied versions are
// tracked in a table inside the same database.
package migrate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultTable is the version-tracking table used when none is given.
const DefaultTable = "schema_migrations"

var fileRe = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// Migration is one versioned schema change with its forward and
// reverse SQL.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator applies migrations from a directory to a SQLite database.
type Migrator struct {
	db    *sql.DB
	dir   string
	table string
}

// New returns a migrator over the given database and migration
// directory. An empty table name selects DefaultTable.
func New(db *sql.DB, dir, table string) *Migrator {
	if table == "" {
		table = DefaultTable
	}
	return &Migrator{db: db, dir: dir, table: table}
}

// Up applies every migration newer than the current version.
func (m *Migrator) Up() error {
	return m.To(-1)
}

// To migrates up or down until the schema sits at target. A target of
// -1 means the newest migration on disk.
func (m *Migrator) To(target int) error {
	if err := m.ensureTable(); err != nil {
		return err
	}
	current, err := m.version()
	if err != nil {
		return err
	}
	migrations, err := m.load()
	if err != nil {
		return err
	}
	if target == -1 {
		if len(migrations) == 0 {
			return nil
		}
		target = migrations[len(migrations)-1].Version
	}

	if target < current {
		return m.DownTo(target)
	}
	for _, mig := range migrations {
		if mig.Version > current && mig.Version <= target {
			if err := m.apply(mig, true); err != nil {
				return fmt.Errorf("migration %d up: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// DownTo rolls back every migration above target, newest first.
func (m *Migrator) DownTo(target int) error {
	if err := m.ensureTable(); err != nil {
		return err
	}
	current, err := m.version()
	if err != nil {
		return err
	}
	if target >= current {
		return fmt.Errorf("target version %d is not below current version %d", target, current)
	}
	migrations, err := m.load()
	if err != nil {
		return err
	}
	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if mig.Version > target && mig.Version <= current {
			if err := m.apply(mig, false); err != nil {
				return fmt.Errorf("migration %d down: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// Version reports the highest applied migration version, creating the
// tracking table if needed.
func (m *Migrator) Version() (int, error) {
	if err := m.ensureTable(); err != nil {
		return 0, err
	}
	return m.version()
}

// Pending lists the migrations on disk that are newer than the current
// version, in apply order.
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.Version()
	if err != nil {
		return nil, err
	}
	migrations, err := m.load()
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// load reads the migration directory and returns its migrations sorted
// by ascending version.
func (m *Migrator) load() ([]Migration, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading migration directory %s: %w", m.dir, err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := fileRe.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("migration file %s: %w", entry.Name(), err)
		}
		content, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", entry.Name(), err)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version, Name: strings.ReplaceAll(matches[2], "_", " ")}
			byVersion[version] = mig
		}
		if matches[3] == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Migrator) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, m.table)
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("creating migration table: %w", err)
	}
	return nil
}

func (m *Migrator) version() (int, error) {
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.table)
	if err := m.db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("reading current version: %w", err)
	}
	return version, nil
}

// apply runs one migration's SQL and the matching version bookkeeping
// in a single transaction.
func (m *Migrator) apply(mig Migration, up bool) error {
	script := mig.Up
	direction := "up"
	if !up {
		script = mig.Down
		direction = "down"
	}
	if script == "" {
		return fmt.Errorf("no %s SQL", direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return err
	}

	if up {
		query := fmt.Sprintf(
			"INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)", m.table)
		_, err = tx.Exec(query, mig.Version)
	} else {
		query := fmt.Sprintf("DELETE FROM %s WHERE version = ?", m.table)
		_, err = tx.Exec(query, mig.Version)
	}
	if err != nil {
		return fmt.Errorf("recording version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	fmt.Printf("Applied migration %d (%s) %s\n", mig.Version, mig.Name, direction)
	return nil
}
