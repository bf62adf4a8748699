//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse loads prepared snapshots into a star-schema database
// and reads them back for analysis.
package warehouse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Warehouse is a handle on the star-schema database.
type Warehouse struct {
	db *sqlx.DB

	// FailOnOrphans makes Load return an OrphanReferenceError instead of
	// skipping sales that reference a missing customer or product.
	FailOnOrphans bool

	Log zerolog.Logger
}

// Open connects to the warehouse. For SQLite the parent directory of the
// database file is created and foreign keys are enabled.
func Open(ctx context.Context, driver, dsn string) (*Warehouse, error) {
	switch driver {
	case DriverSQLite:
		if path := sqlitePath(dsn); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported warehouse driver: %s", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	if driver == DriverSQLite {
		// A single connection keeps the foreign_keys pragma and in-memory
		// databases consistent across statements.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection.
func NewWithDB(db *sqlx.DB) *Warehouse {
	return &Warehouse{db: db, Log: zerolog.Nop()}
}

// DB returns the underlying connection.
func (w *Warehouse) DB() *sqlx.DB {
	return w.db
}

// Close closes the connection.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// sqliteDSN enables foreign keys unless the DSN already sets pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_pragma=foreign_keys(1)"
	}
	return dsn + "?_pragma=foreign_keys(1)"
}

// sqlitePath returns the file path of a SQLite DSN, or "" for in-memory
// databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}
