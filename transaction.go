package netql

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/biyonik/go-netql/dialect"
	"github.com/biyonik/go-netql/internal/validation"
)

// -----------------------------------------------------------------------------
//  Transaction
//
//  A Transaction is either begun by the execution scope for a single write, or
//  begun by the caller (DB.Begin, Builder.Transaction(true)) and shared by any
//  number of statements until Commit or Rollback. Commit and Rollback are safe
//  to call from any goroutine; running statements concurrently on one
//  transaction is not supported.
// -----------------------------------------------------------------------------

// Transaction wraps a *sql.Tx.
type Transaction struct {
	tx *sql.Tx
	db *DB

	mu     sync.Mutex
	closed bool
}

var _ QueryExecutor = (*Transaction)(nil)

// Builder returns a builder whose statements run inside t. The execution scope
// never commits or rolls back t on the builder's behalf.
//
//	tx, _ := db.Begin()
//	_, err := tx.Update("users").SetValue("active", false).Where("id", 1).Execute(nil)
func (t *Transaction) Builder() *Builder {
	return t.db.Builder().UseTransaction(t)
}

// Select starts a SELECT inside the transaction.
func (t *Transaction) Select(columns, table string) *Builder {
	return t.Builder().Select(columns, table)
}

// Insert starts an INSERT inside the transaction.
func (t *Transaction) Insert(table string) *Mutation {
	return t.Builder().Insert(table)
}

// Update starts an UPDATE inside the transaction.
func (t *Transaction) Update(table string) *Mutation {
	return t.Builder().Update(table)
}

// Delete starts a DELETE inside the transaction.
func (t *Transaction) Delete(table string) *Mutation {
	return t.Builder().Delete(table)
}

// Commit commits the transaction. Committing twice returns ErrTransactionClosed.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransactionClosed
	}

	t.closed = true
	if err := t.tx.Commit(); err != nil {
		return WrapError("commit transaction", err)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op on a closed transaction.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return WrapError("rollback transaction", err)
	}
	return nil
}

// IsClosed reports whether the transaction was committed or rolled back.
func (t *Transaction) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// IsOpen reports whether the transaction still holds its connection.
func (t *Transaction) IsOpen() bool {
	return !t.IsClosed()
}

// ExecContext implements QueryExecutor.
func (t *Transaction) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.IsClosed() {
		return nil, ErrTransactionClosed
	}
	return t.tx.ExecContext(ctx, query, args...)
}

// QueryContext implements QueryExecutor.
func (t *Transaction) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if t.IsClosed() {
		return nil, ErrTransactionClosed
	}
	return t.tx.QueryContext(ctx, query, args...)
}

// Savepoint marks a point the transaction can roll back to.
func (t *Transaction) Savepoint(ctx context.Context, name string) error {
	stmt := "SAVEPOINT " + name
	if t.db.dialect.Provider == dialect.SQLServer {
		stmt = "SAVE TRANSACTION " + name
	}
	return t.savepointExec(ctx, name, stmt, "create savepoint")
}

// RollbackTo undoes everything after the named savepoint.
func (t *Transaction) RollbackTo(ctx context.Context, name string) error {
	stmt := "ROLLBACK TO SAVEPOINT " + name
	if t.db.dialect.Provider == dialect.SQLServer {
		stmt = "ROLLBACK TRANSACTION " + name
	}
	return t.savepointExec(ctx, name, stmt, "rollback to savepoint")
}

// ReleaseSavepoint forgets a savepoint. SQL Server and Oracle have no release
// statement, so it is a no-op there.
func (t *Transaction) ReleaseSavepoint(ctx context.Context, name string) error {
	switch t.db.dialect.Provider {
	case dialect.SQLServer, dialect.Oracle:
		if err := validation.ValidateAlias(name); err != nil {
			return NewValidationError(name, "savepoint", err.Error())
		}
		return nil
	}
	return t.savepointExec(ctx, name, "RELEASE SAVEPOINT "+name, "release savepoint")
}

func (t *Transaction) savepointExec(ctx context.Context, name, stmt, op string) error {
	if err := validation.ValidateAlias(name); err != nil {
		return NewValidationError(name, "savepoint", err.Error())
	}
	if _, err := t.ExecContext(ctx, stmt); err != nil {
		if errors.Is(err, ErrTransactionClosed) {
			return err
		}
		return WrapError(op, err)
	}
	return nil
}

// Tx returns the underlying *sql.Tx.
func (t *Transaction) Tx() *sql.Tx {
	return t.tx
}
