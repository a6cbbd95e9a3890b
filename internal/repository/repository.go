// Package repository holds helpers shared by the SQL stores.
package repository

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is the subset of database/sql used by the stores.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

const roleSeparator = ","

// EncodeRoles flattens role tags into one column value.
func EncodeRoles(roles []string) string {
	return strings.Join(roles, roleSeparator)
}

// DecodeRoles is the inverse of EncodeRoles.
func DecodeRoles(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, roleSeparator)
}

// NullableString maps the empty string to NULL.
func NullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
