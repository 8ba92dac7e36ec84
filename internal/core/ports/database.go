// internal/core/ports/database.go
package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database defines the port for database operations, abstracting away the
// concrete pgxpool implementation from handlers that need basic DB access.
type Database interface {
	Pool() *pgxpool.Pool
	Close()
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TxManager leases a transaction to the function it is given. The
// transaction is committed when fn returns nil and rolled back on error or
// panic; the underlying connection is always returned to the pool on every
// exit path. A lock wait that exceeds the configured timeout surfaces as a
// domain.ConcurrencyError.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}
