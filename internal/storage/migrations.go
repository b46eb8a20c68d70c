// Embedded-file schema migrations.
//
// Migration SQL files live under migrations/<driver>/ and must be named
// NNNN_name.up.sql or NNNN_name.down.sql. Adding or removing migration files
// requires rebuilding the binary.
//
// Influenced by Authelia's migration system
// https://github.com/authelia/authelia/blob/master/internal/storage/migrations.go

package storage

import (
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

//go:embed migrations/**/*.sql
var migrationsFS embed.FS

var reMigrationFilename = regexp.MustCompile(`^(?P<Version>\d{4})\_(?P<Name>[^.]+)\.(?P<Direction>(up|down))\.sql$`)

// SchemaMigration represents a single database migration
type SchemaMigration struct {
	Version int
	Name    string
	Up      bool
	SQL     string
}

// loadMigrations returns the up migrations for the driver, sorted ascending.
func loadMigrations(driver string) ([]SchemaMigration, error) {
	dirPath := "migrations/" + driver

	entries, err := migrationsFS.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var migrations []SchemaMigration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		parts := reMigrationFilename.FindStringSubmatch(filename)
		if parts == nil {
			slog.Warn("Skipping unrecognized migration file", "file", filename)
			continue
		}

		sqlBytes, err := migrationsFS.ReadFile(filepath.Join(dirPath, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file: %w", err)
		}

		version, _ := strconv.Atoi(parts[reMigrationFilename.SubexpIndex("Version")])
		migration := SchemaMigration{
			Version: version,
			Name:    parts[reMigrationFilename.SubexpIndex("Name")],
			Up:      parts[reMigrationFilename.SubexpIndex("Direction")] == "up",
			SQL:     string(sqlBytes),
		}

		if migration.Up {
			migrations = append(migrations, migration)
		}
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// runMigrations applies all pending up migrations for the driver. Each
// migration runs in its own transaction and is recorded in schema_migrations.
func (p *SQLProvider) runMigrations(driver string) error {
	logger := p.logger.With("driver", driver)

	_, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := p.db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("failed to read current schema version: %w", err)
	}

	migrations, err := loadMigrations(driver)
	if err != nil {
		return err
	}

	applied := 0
	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := p.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %04d_%s failed: %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			migration.Version, migration.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %04d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		logger.Info("Applied migration", "version", migration.Version, "name", migration.Name)
		applied++
	}

	if applied == 0 {
		logger.Debug("Schema up to date", "version", current)
	}
	return nil
}
