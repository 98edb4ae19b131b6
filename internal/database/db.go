// Package database wraps the SQLite connection used by the history module.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (and creates if necessary) the history database.
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode for concurrent readers while the refresh job writes.
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the file path of the database.
func (db *DB) Path() string {
	return db.path
}

// EnsureSchema creates the tables the analytics service reads if they do not
// exist yet. daily_prices is populated externally by the data-sync service.
func (db *DB) EnsureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daily_prices (
		symbol TEXT NOT NULL,
		date   TEXT NOT NULL,
		close  REAL NOT NULL,
		PRIMARY KEY (symbol, date)
	);
	CREATE TABLE IF NOT EXISTS factor_loadings (
		symbol     TEXT NOT NULL,
		factor     TEXT NOT NULL,
		loading    REAL NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (symbol, factor)
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
