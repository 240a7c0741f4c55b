// Package store provides the row store accessor: the sole place SQL
// statements are executed against the database and the sole
// error-translation boundary. All values are parameterized; the only
// string-building allowed is interpolation of identifiers that passed
// allow-list validation.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/gridb/gridb/internal/errors"
	"github.com/gridb/gridb/pkg/value"
)

// DefaultBusyTimeout is the bounded wait applied to lock contention
// before a Busy error surfaces.
const DefaultBusyTimeout = 5 * time.Second

// Options configures an accessor.
type Options struct {
	// BusyTimeout bounds the wait on a locked database. Zero means
	// DefaultBusyTimeout.
	BusyTimeout time.Duration

	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool
}

// Accessor owns the connection to one open database file for its
// lifetime. A single write connection keeps statement execution and
// last-insert-id capture race-free; every successful mutation is
// immediately durable (autocommit).
type Accessor struct {
	db   *sql.DB
	path string
}

// Result reports the outcome of a mutating statement.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Row is one materialized row: column name to value.
type Row map[string]value.Value

// ResultSet is an ordered materialization of a query.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Open opens the database file at path.
func Open(path string, opts Options) (*Accessor, error) {
	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", path, timeout.Milliseconds())
	if opts.ForeignKeys {
		dsn += "&_fk=1"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.StorageError(fmt.Sprintf("open %s", path), err)
	}
	// Single writer: the editor has exactly one logical caller, and
	// LastInsertId must observe the statement that produced it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.StorageError(fmt.Sprintf("open %s", path), err)
	}

	return &Accessor{db: db, path: path}, nil
}

// Path returns the path the accessor was opened with.
func (a *Accessor) Path() string { return a.path }

// Close closes the underlying connection. Outstanding snapshots and
// history referring to this accessor are invalid afterwards.
func (a *Accessor) Close() error {
	return a.db.Close()
}

// Exec runs a mutating statement with bound parameters.
func (a *Accessor) Exec(ctx context.Context, stmt string, args ...interface{}) (Result, error) {
	res, err := a.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return Result{}, translate(stmt, err)
	}
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

// Query runs a statement and materializes every returned row.
func (a *Accessor) Query(ctx context.Context, stmt string, args ...interface{}) (*ResultSet, error) {
	rows, err := a.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, translate(stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, translate(stmt, err)
	}

	rs := &ResultSet{Columns: cols}
	raw := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, translate(stmt, err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			v, err := value.FromScan(raw[i])
			if err != nil {
				return nil, errors.StorageError(fmt.Sprintf("scan column %s", col), err)
			}
			row[col] = v
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(stmt, err)
	}
	return rs, nil
}

// QueryScalar runs a statement expected to return a single value.
func (a *Accessor) QueryScalar(ctx context.Context, stmt string, args ...interface{}) (value.Value, error) {
	var raw interface{}
	if err := a.db.QueryRowContext(ctx, stmt, args...).Scan(&raw); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return value.Null(), nil
		}
		return value.Null(), translate(stmt, err)
	}
	v, err := value.FromScan(raw)
	if err != nil {
		return value.Null(), errors.StorageError("scan scalar", err)
	}
	return v, nil
}

// translate maps driver errors onto the editor taxonomy. Contention is
// surfaced as Busy after the driver's bounded wait; the accessor never
// retries on the caller's behalf.
func translate(stmt string, err error) error {
	var se sqlite3.Error
	if stderrors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errors.Busy("database is locked; try again later", err)
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "syntax error") {
		return errors.Wrap(errors.ErrCategorySchema, errors.CodeSchemaError, summarize(stmt), err)
	}
	return errors.StorageError(summarize(stmt), err)
}

// summarize trims a statement to its leading keyword for error text so
// bound values never leak into logs.
func summarize(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return "statement failed"
	}
	verb := strings.ToUpper(fields[0])
	if len(fields) > 1 {
		return verb + " statement failed"
	}
	return verb + " failed"
}
