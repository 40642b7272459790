package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"cscrape/internal/domain"
)

// Migrator brings the history schema up to date
type Migrator interface {
	Run(ctx context.Context) error
}

// Migration is one forward-only schema change
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrations is the history schema, in order
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_runs",
		Up: `CREATE TABLE IF NOT EXISTS runs (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  started_at DATETIME NOT NULL,
  duration_seconds DOUBLE NOT NULL,
  workers INT NOT NULL,
  total_jobs INT NOT NULL,
  failed_jobs INT NOT NULL,
  compiled_jobs INT NOT NULL,
  checked_records INT NOT NULL,
  failed_records INT NOT NULL
)`,
	},
	{
		Version: 2,
		Name:    "create_failures",
		Up: `CREATE TABLE IF NOT EXISTS failures (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  run_id BIGINT NOT NULL,
  simulator VARCHAR(255) NOT NULL,
  fixture VARCHAR(255) NOT NULL,
  file VARCHAR(1024) NOT NULL,
  line INT NOT NULL,
  kind VARCHAR(8) NOT NULL,
  expr TEXT NOT NULL,
  expected TEXT NOT NULL,
  actual TEXT NOT NULL,
  message TEXT NOT NULL,
  FOREIGN KEY (run_id) REFERENCES runs (id) ON DELETE CASCADE
)`,
	},
	{
		Version: 3,
		Name:    "index_failures_by_job",
		Up:      `CREATE INDEX failures_job ON failures (simulator, fixture)`,
	},
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version INT PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  applied_at DATETIME NOT NULL
)`

// Pending returns the migrations not in applied, by version
func Pending(all []Migration, applied map[int]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// SchemaMigrator applies Migrations to the history database
type SchemaMigrator struct {
	databaseManager *DatabaseManager
	migrations      []Migration
	out             io.Writer
}

// NewSchemaMigrator creates a new SchemaMigrator
func NewSchemaMigrator(dbManager *DatabaseManager) *SchemaMigrator {
	return &SchemaMigrator{
		databaseManager: dbManager,
		migrations:      Migrations,
		out:             os.Stderr,
	}
}

// Run creates the database if needed and applies pending migrations
func (sm *SchemaMigrator) Run(ctx context.Context) error {
	color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
	color.Cyan("║                 Migrating History Database                 ║")
	color.Cyan("╚════════════════════════════════════════════════════════════╝\n")

	start := time.Now()
	created, err := sm.databaseManager.EnsureDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	if created {
		color.White("Created database %s\n", sm.databaseManager.db.Name)
	}

	db, err := sm.databaseManager.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := sm.Apply(ctx, db)
	if err != nil {
		return err
	}

	applied := 0
	for _, r := range results {
		if r.Error != nil {
			color.Red("✗ Migration %d (%s) failed: %v\n", r.Version, r.Name, r.Error)
			return r.Error
		}
		if r.Applied {
			applied++
		}
	}
	color.Green("✓ %d migration(s) applied, schema is up to date\n", applied)
	color.White("Duration: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// Apply runs the pending migrations on db, stopping at the first failure.
func (sm *SchemaMigrator) Apply(ctx context.Context, db *sql.DB) ([]domain.MigrationResult, error) {
	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pending := Pending(sm.migrations, applied)
	var results []domain.MigrationResult
	for _, m := range sm.migrations {
		if applied[m.Version] {
			results = append(results, domain.MigrationResult{Version: m.Version, Name: m.Name})
		}
	}
	if len(pending) == 0 {
		return results, nil
	}

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription(color.CyanString("Migrating: ")),
		progressbar.OptionSetWidth(50),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(sm.out),
		progressbar.OptionSetRenderBlankState(true),
	)
	defer bar.Finish()

	for _, m := range pending {
		r := domain.MigrationResult{Version: m.Version, Name: m.Name, Applied: true}
		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			r.Error = fmt.Errorf("%s: %w", m.Name, err)
			results = append(results, r)
			return results, nil
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UTC()); err != nil {
			r.Error = fmt.Errorf("record %s: %w", m.Name, err)
			results = append(results, r)
			return results, nil
		}
		results = append(results, r)
		bar.Add(1)
	}
	return results, nil
}
