package migration

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"cscrape/internal/config"
	"cscrape/internal/storage"
)

// DatabaseManager manages the history database
type DatabaseManager struct {
	db config.Database
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(db config.Database) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// EnsureDatabase creates the history database when it does not exist yet
func (dm *DatabaseManager) EnsureDatabase(ctx context.Context) (created bool, err error) {
	if !isValidDatabaseName(dm.db.Name) {
		return false, fmt.Errorf("invalid database name: %q", dm.db.Name)
	}

	// Connect to the server without selecting a database
	db, err := sql.Open("mysql", storage.DSN(dm.db, false))
	if err != nil {
		return false, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := databaseExists(ctx, db, dm.db.Name)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", dm.db.Name, err)
	}
	if exists {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dm.db.Name)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", dm.db.Name, err)
	}
	return true, nil
}

// Open connects to the history database itself
func (dm *DatabaseManager) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", storage.DSN(dm.db, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dm.db.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", dm.db.Name, err)
	}
	return db, nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

var databaseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// isValidDatabaseName accepts only names safe to splice into CREATE DATABASE
func isValidDatabaseName(name string) bool {
	return databaseNamePattern.MatchString(name)
}
