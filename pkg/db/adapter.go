package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Adapter wraps a *sql.DB (or *sql.Tx, via WithTx) plus the dialect
// needed to rewrite SQLite-flavoured statements before they run.
//
// Grounded on haasonsaas-nexus's internal/sessions.CockroachStore, which
// carries a *sql.DB plus driver-specific prepared statements side by
// side with the interface-matching MemoryStore. Adapter centralizes the
// dialect guard so call sites write one dialect-agnostic query instead
// of a prepared statement per backend.
type Adapter struct {
	dialect Dialect
	db      *sql.DB
	exec    execer
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a connection pool for dialect using driverName/dsn and
// returns an Adapter. driverName must be one of "sqlite3", "postgres".
func Open(dialect Dialect, driverName, dsn string) (*Adapter, error) {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "db", "open connection", err)
	}
	if dialect == SQLite {
		// SQLite allows only one writer at a time; a single shared
		// connection serializes access and avoids "database is locked"
		// errors under concurrent turns.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}
	conn.SetConnMaxLifetime(time.Hour)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errs.New(errs.KindPersistence, "db", "ping connection", err)
	}
	return &Adapter{dialect: dialect, db: conn, exec: conn}, nil
}

// Dialect reports the adapter's active dialect.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Close closes the underlying connection pool. A no-op on a transaction
// adapter returned from WithTx.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Exec rewrites query for the active dialect and runs it.
func (a *Adapter) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := a.exec.ExecContext(ctx, Rewrite(a.dialect, query), args...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "db", "exec", err)
	}
	return res, nil
}

// Query rewrites query for the active dialect and runs it, returning
// rows wrapped for index-or-name column access.
func (a *Adapter) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	rows, err := a.exec.QueryContext(ctx, Rewrite(a.dialect, query), args...)
	if err != nil {
		return nil, errs.New(errs.KindPersistence, "db", "query", err)
	}
	return &Rows{Rows: rows}, nil
}

// QueryRow rewrites query for the active dialect and runs it, returning
// a single-row scanner.
func (a *Adapter) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return a.exec.QueryRowContext(ctx, Rewrite(a.dialect, query), args...)
}

// WithTx runs fn inside a transaction, committing on nil return and
// rolling back otherwise. fn receives an Adapter whose Exec/Query methods
// run against the transaction.
func (a *Adapter) WithTx(ctx context.Context, fn func(tx *Adapter) error) error {
	if a.db == nil {
		return errs.New(errs.KindPersistence, "db", "WithTx called on a transaction adapter", nil)
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.KindPersistence, "db", "begin tx", err)
	}
	txAdapter := &Adapter{dialect: a.dialect, exec: tx}
	if err := fn(txAdapter); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errs.New(errs.KindPersistence, "db", "rollback after error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.New(errs.KindPersistence, "db", "commit tx", err)
	}
	return nil
}

// TableExists reports whether name exists in the current database,
// using the dialect-appropriate catalog query.
func (a *Adapter) TableExists(ctx context.Context, name string) (bool, error) {
	var query string
	switch a.dialect {
	case Postgres:
		query = "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)"
	default:
		query = "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name = ?"
	}
	var exists bool
	row := a.exec.QueryRowContext(ctx, query, name)
	if err := row.Scan(&exists); err != nil {
		return false, errs.New(errs.KindPersistence, "db", "table exists check", err)
	}
	return exists, nil
}

// Rows wraps *sql.Rows to add name-based column lookup alongside the
// usual positional Scan.
type Rows struct {
	*sql.Rows
}

// ColumnIndex returns the zero-based index of name within the result
// set, or -1 if absent.
func (r *Rows) ColumnIndex(name string) (int, error) {
	cols, err := r.Columns()
	if err != nil {
		return -1, err
	}
	for i, c := range cols {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found", name)
}

// DriverFor returns the database/sql driver name to pass to Open for
// dialect.
func DriverFor(dialect Dialect) string {
	switch dialect {
	case Postgres:
		return "postgres"
	default:
		return "sqlite3"
	}
}

// ParseDialect validates a configured dialect string.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case SQLite, Postgres:
		return Dialect(s), nil
	default:
		return "", errs.New(errs.KindConfig, "db", fmt.Sprintf("unknown dialect %q", s), nil)
	}
}
