// Package sqlite implements the user and code stores on an embedded
// SQLite database. Timestamps are stored as UTC unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dtroode/adminauth-server/database"
)

type Connection struct {
	*sql.DB
}

// NewConnection opens the database at dsn (a file path or a file: URI such
// as "file:auth?mode=memory&cache=shared") and applies migrations. Access
// is serialized on one connection.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if err := database.Migrate(ctx, db, database.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &Connection{DB: db}, nil
}

func (c *Connection) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
