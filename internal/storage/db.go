// Package storage owns the three SQLite-backed databases the screener
// persists to disk: fundamentals, quality, and price.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// Profile selects a PRAGMA tuning preset for a database handle.
type Profile string

const (
	// ProfileStandard is used for fundamentals and quality: rows are
	// upserted incrementally and must survive an unclean shutdown.
	ProfileStandard Profile = "standard"
	// ProfileFast is used for price: rows are bulk-replaced on every
	// refetch, so a relaxed synchronous level is an acceptable trade.
	ProfileFast Profile = "fast"
)

// DB wraps a *sql.DB with the database's logical name and applied profile.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
	name    string
}

// Config describes how to open one logical database.
type Config struct {
	Path    string
	Profile Profile
	Name    string // one of "fundamentals", "quality", "price"
}

// OpenDB opens a SQLite connection with profile-specific PRAGMAs and
// applies the embedded schema for cfg.Name.
func OpenDB(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Name, err)
	}
	configureConnectionPool(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database %s: %w", cfg.Name, err)
	}

	db := &DB{conn: conn, path: cfg.Path, profile: cfg.Profile, name: cfg.Name}
	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate database %s: %w", cfg.Name, err)
	}
	return db, nil
}

func buildConnectionString(path string, profile Profile) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	switch profile {
	case ProfileFast:
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=auto_vacuum(FULL)"
	default:
		connStr += "&_pragma=synchronous(FULL)"
		connStr += "&_pragma=auto_vacuum(INCREMENTAL)"
	}
	connStr += "&_pragma=temp_store(MEMORY)"
	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=wal_autocheckpoint(1000)"
	connStr += "&_pragma=cache_size(-64000)"
	return connStr
}

func configureConnectionPool(conn *sql.DB) {
	conn.SetMaxOpenConns(16)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(10 * time.Minute)
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// Conn returns the raw *sql.DB, for repositories that need direct access.
func (db *DB) Conn() *sql.DB { return db.conn }

// Name returns the logical database name.
func (db *DB) Name() string { return db.name }

var schemaFiles = map[string]string{
	"fundamentals": "fundamentals_schema.sql",
	"quality":      "quality_schema.sql",
	"price":        "price_schema.sql",
}

// Migrate applies the embedded schema for db.name, then records the schema
// version in the meta table. It is idempotent: CREATE TABLE/INDEX IF NOT
// EXISTS statements make re-running it on an already-migrated database a
// no-op.
func (db *DB) Migrate() error {
	schemaFile, ok := schemaFiles[db.name]
	if !ok {
		return fmt.Errorf("no schema registered for database %q", db.name)
	}

	content, err := schemaFS.ReadFile("schemas/" + schemaFile)
	if err != nil {
		return fmt.Errorf("read embedded schema %s: %w", schemaFile, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply schema %s: %w", schemaFile, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO meta(key, value) VALUES ('schema_version', '1')
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Meta returns the value stored under key in this database's meta table,
// and whether it was present.
func (db *DB) Meta(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query meta %q: %w", key, err)
	}
	return value, true, nil
}

// SetMeta upserts key=value in this database's meta table.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO meta(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) WithTx(fn func(*sql.Tx) error) (err error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}
