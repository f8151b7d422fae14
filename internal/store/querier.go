// Package store contains the SQL persistence layer. Functions take the
// database handle explicitly; ones that participate in multi-row
// workflow mutations accept a Querier so the services can run them
// inside a single transaction.
package store

import (
	"context"
	"database/sql"
)

// Querier is the query subset satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
