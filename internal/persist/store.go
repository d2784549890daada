// Package persist writes materialized tables into shadow tables and promotes them
// to their live names.
package persist

import (
	"context"

	"github.com/hurou927/db-dump/internal/schema"
)

// Store opens backend sessions.
type Store interface {
	OpenSession(ctx context.Context) (Session, error)
}

// BulkLoader transfers rows into an existing table using the backend's bulk facility.
type BulkLoader interface {
	WriteRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// Session is one backend connection. Close releases it.
type Session interface {
	BulkLoader
	Exec(ctx context.Context, sql string) error
	// ExecTx runs stmts in one transaction.
	ExecTx(ctx context.Context, stmts ...string) error
	Close() error
}

// Dialect generates backend specific identifiers and DDL.
type Dialect interface {
	// ValidName sanitizes name into an identifier. It is idempotent and never
	// returns more than MaxIdentifierLength bytes.
	ValidName(name string) string
	MaxIdentifierLength() int
	ColumnDefinition(c schema.Column) string
	TableDefinition(t *schema.Table) string
	StorageDbType(c schema.Column) string
	// PromoteStatements drops live if present and renames shadow to live.
	PromoteStatements(shadow, live string) []string
}
