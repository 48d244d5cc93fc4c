package netql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/biyonik/go-netql/dialect"
)

// ----------------------------------------------------------------------------
// Executor
//
// The execution scope is the only place that talks to the driver. Every terminal
// operation goes through Builder.scope, which
//
//   - reuses the builder's transaction when one is held, otherwise borrows a
//     dedicated *sql.Conn for reads or begins a transaction for writes
//   - commits on success unless the caller keeps the transaction open
//   - rolls back on failure (or panic) unless the caller owns the transaction
//   - resets the builder's accumulated clauses on every exit path
//   - returns the borrowed connection to the pool
// ----------------------------------------------------------------------------

// QueryExecutor is the part of database/sql a statement needs. *sql.DB, *sql.Conn
// and *sql.Tx all satisfy it.
type QueryExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ QueryExecutor = (*sql.DB)(nil)
	_ QueryExecutor = (*sql.Conn)(nil)
	_ QueryExecutor = (*sql.Tx)(nil)
)

// DB wraps a *sql.DB with the dialect and the collaborators every builder made
// from it shares.
type DB struct {
	*sql.DB
	dialect    dialect.Dialect
	dialectSet bool
	grammar    *dialect.Grammar
	scanner    Scanner
	logger     Logger
	debug      bool
	prefix     string
	identity   IdentitySource
}

// NewDB wraps an open *sql.DB. db may be nil for a render-only DB. A dialect
// without quote and bind symbols is rejected with ErrUnsupportedDialect.
func NewDB(db *sql.DB, d dialect.Dialect, opts ...Option) (*DB, error) {
	out := &DB{
		DB:      db,
		dialect: d,
		logger:  NopLogger{},
	}
	applyOptions(out, opts)

	if out.dialect.BindSymbol == "" || out.dialect.StartQuote == "" {
		return nil, &dialect.DialectError{Message: "dialect has no quote or bind symbol", Err: ErrUnsupportedDialect}
	}
	out.grammar = dialect.NewGrammar(out.dialect)
	if out.scanner == nil {
		out.scanner = NewDefaultScanner()
	}
	if out.identity == nil {
		out.identity = NewSequence(1)
	}
	if out.debug {
		if _, nop := out.logger.(NopLogger); nop || out.logger == nil {
			out.logger = NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}
	return out, nil
}

// Dialect returns the dialect statements are rendered for.
func (d *DB) Dialect() dialect.Dialect {
	return d.dialect
}

// Grammar returns the renderer.
func (d *DB) Grammar() *dialect.Grammar {
	return d.grammar
}

// Scanner returns the row mapper.
func (d *DB) Scanner() Scanner {
	return d.scanner
}

// Logger returns the statement logger.
func (d *DB) Logger() Logger {
	return d.logger
}

// TablePrefix returns the prefix added to table names.
func (d *DB) TablePrefix() string {
	return d.prefix
}

// IsDebug reports whether statements are logged.
func (d *DB) IsDebug() bool {
	return d.debug
}

// Builder starts an empty builder with a fresh identity.
func (d *DB) Builder() *Builder {
	return newBuilder(d)
}

// Select starts a SELECT of columns ("id,name" or "*") from table.
func (d *DB) Select(columns, table string) *Builder {
	return d.Builder().Select(columns, table)
}

// From starts a SELECT * from table.
func (d *DB) From(table string) *Builder {
	return d.Builder().From(table)
}

// Query starts a builder whose head is raw SQL.
func (d *DB) Query(sql string) *Builder {
	return d.Builder().Query(sql)
}

// Insert starts an INSERT into table.
func (d *DB) Insert(table string) *Mutation {
	return d.Builder().Insert(table)
}

// Update starts an UPDATE of table.
func (d *DB) Update(table string) *Mutation {
	return d.Builder().Update(table)
}

// Delete starts a DELETE from table.
func (d *DB) Delete(table string) *Mutation {
	return d.Builder().Delete(table)
}

// BeginTx starts a caller-managed transaction.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Transaction, error) {
	if d.DB == nil {
		return nil, ErrNoExecutor
	}
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, WrapError("begin transaction", err)
	}
	return &Transaction{tx: tx, db: d}, nil
}

// Begin starts a transaction with default options.
func (d *DB) Begin() (*Transaction, error) {
	return d.BeginTx(context.Background(), nil)
}

// Transaction runs fn inside a transaction. It commits when fn returns nil and
// rolls back when fn fails or panics.
func (d *DB) Transaction(ctx context.Context, fn func(*Transaction) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, WrapError("rollback after error", rbErr))
		}
		return err
	}

	return tx.Commit()
}

// Close closes the underlying database.
func (d *DB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	if d.DB == nil {
		return ErrNoExecutor
	}
	return d.DB.PingContext(ctx)
}

func (d *DB) nextIdentity() string {
	return d.identity.Next()
}

func (d *DB) log(query string, args []any, started time.Time, err error) {
	if !d.debug || d.logger == nil {
		return
	}
	d.logger.Log(query, args, time.Since(started), err)
}

// exec runs a non-query statement.
func (d *DB) exec(ctx context.Context, q QueryExecutor, st Statement) (*QueryResult, error) {
	started := time.Now()
	res, err := q.ExecContext(ctx, st.SQL, st.Args...)
	d.log(st.SQL, st.Args, started, err)
	if err != nil {
		return nil, NewQueryError(err, st.SQL, st.Args, "netql: exec")
	}
	return NewQueryResult(res), nil
}

// query runs a row-returning statement and calls fn once per row. The *Row is
// reused between calls.
func (d *DB) query(ctx context.Context, q QueryExecutor, st Statement, fn func(*Row) error) error {
	started := time.Now()
	rows, err := q.QueryContext(ctx, st.SQL, st.Args...)
	d.log(st.SQL, st.Args, started, err)
	if err != nil {
		return NewQueryError(err, st.SQL, st.Args, "netql: query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return NewQueryError(err, st.SQL, st.Args, "netql: read columns")
	}
	row := newRow(columns)
	for rows.Next() {
		if err := row.scan(rows); err != nil {
			return NewQueryError(err, st.SQL, st.Args, "netql: scan row")
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return NewQueryError(err, st.SQL, st.Args, "netql: iterate rows")
	}
	return nil
}

// scope runs one statement under the builder's transaction rules and resets the
// builder afterwards. The returned transaction is the one the statement ran in,
// or nil for a read on a plain connection.
func (b *Builder) scope(ctx context.Context, write bool, run func(context.Context, QueryExecutor) error) (tx *Transaction, err error) {
	defer b.Reset()

	if b.db == nil || b.db.DB == nil {
		return nil, ErrNoExecutor
	}
	if b.tx != nil && b.tx.IsClosed() {
		b.tx = nil
	}
	tx = b.tx

	if tx == nil && !write && !b.useTx {
		conn, err := b.db.DB.Conn(ctx)
		if err != nil {
			return nil, WrapError("open connection", err)
		}
		defer conn.Close()
		return nil, run(ctx, conn)
	}

	if tx == nil {
		if tx, err = b.db.BeginTx(ctx, nil); err != nil {
			return nil, err
		}
		if b.useTx {
			b.tx = tx
		}
	}

	owned := !b.useTx
	defer func() {
		if p := recover(); p != nil {
			if owned {
				b.tx = nil
				_ = tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := run(ctx, tx); err != nil {
		if owned {
			b.tx = nil
			if rbErr := tx.Rollback(); rbErr != nil {
				return tx, errors.Join(err, WrapError("rollback", rbErr))
			}
		}
		return tx, err
	}

	if owned {
		b.tx = nil
		if err := tx.Commit(); err != nil {
			return tx, err
		}
	}
	return tx, nil
}
