// Package sqlite provides a SQLite-backed storage driver using ent.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"

	entdriver "github.com/papercomputeco/leonia/pkg/storage/ent/driver"
)

// SQLiteDriver implements storage.Driver using SQLite via the ent driver
type SQLiteDriver struct {
	*entdriver.EntDriver
}

// NewSQLiteDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(ctx context.Context, dbPath string) (*SQLiteDriver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and a single
	// writer avoids SQLITE_BUSY on files. The pragmas below hold for that
	// one connection.
	db.SetMaxOpenConns(1)

	// SQLite-specific pragmas. ent's migration refuses to run without
	// foreign keys enabled.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Wrap the database connection with ent's SQL driver
	drv := entsql.OpenDB(dialect.SQLite, db)

	ed, err := entdriver.NewEntDriver(ctx, drv)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &SQLiteDriver{EntDriver: ed}, nil
}
