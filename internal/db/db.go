package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/glebarez/go-sqlite"
)

const (
	driverName = "sqlite"
	memoryDSN  = ":memory:"

	createTableSQL = `
CREATE TABLE IF NOT EXISTS catalog_game_tab (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	folder_key VARCHAR(512) NOT NULL,
	platform_id VARCHAR(64) NOT NULL,
	sub_folder VARCHAR(256) NOT NULL COLLATE NOCASE,
	rom_file VARCHAR(256) NOT NULL COLLATE NOCASE,
	title VARCHAR(512) NOT NULL,
	developer VARCHAR(256) NOT NULL,
	genre VARCHAR(256) NOT NULL,
	description TEXT NOT NULL,
	is_favorite INTEGER NOT NULL,
	ignored INTEGER NOT NULL,
	update_time BIGINT NOT NULL
);`

	createIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_game_tab_key
ON catalog_game_tab(folder_key, sub_folder, rom_file);`

	createPlatformIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_catalog_game_tab_platform
ON catalog_game_tab(platform_id);`
)

// Open opens the sqlite index at path and makes sure the schema exists.
// An empty path or ":memory:" opens a private in-memory index.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = memoryDSN
	}
	if dsn != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("ensure index dir %s: %w", dsn, err)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", dsn, err)
	}
	// every connection of an in-memory database is a separate database
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return db, nil
}

// Execer is the subset of *sql.DB and *sql.Tx the schema setup needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureSchema initialises required tables and indexes.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range []string{createTableSQL, createIndexSQL, createPlatformIndexSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
