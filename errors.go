package netql

import (
	"errors"
	"fmt"

	"github.com/biyonik/go-netql/dialect"
)

// Sentinel errors for netql.
// These errors can be checked using errors.Is().
var (
	// ErrUnsupportedDialect is returned when no dialect matches a driver or provider name.
	ErrUnsupportedDialect = dialect.ErrUnsupported

	// ErrInvalidIdentifier is returned when an alias, join column or savepoint name contains invalid characters.
	ErrInvalidIdentifier = errors.New("netql: invalid SQL identifier")

	// ErrInvalidOperator is returned when an unsupported SQL operator is used.
	ErrInvalidOperator = errors.New("netql: invalid SQL operator")

	// ErrNoTable is returned when a statement is rendered without a table or raw head.
	ErrNoTable = dialect.ErrNoTable

	// ErrNoColumns is returned when an insert/update has no values.
	ErrNoColumns = dialect.ErrNoColumns

	// ErrDuplicateParam is returned when two bound parameters of one statement share a name.
	ErrDuplicateParam = dialect.ErrDuplicateParam

	// ErrEmptyWhereIn is returned when WhereInLiteral is called without values.
	ErrEmptyWhereIn = errors.New("netql: empty value list passed to WhereIn")

	// ErrBulkArray is returned when SetBulk receives a slice or array instead of one record.
	ErrBulkArray = errors.New("netql: SetBulk expects a single record, got a list")

	// ErrNilDestination is returned when a nil pointer is passed as scan destination.
	ErrNilDestination = errors.New("netql: nil destination pointer")

	// ErrNotAPointer is returned when a scan destination is not a pointer.
	ErrNotAPointer = errors.New("netql: destination must be a pointer")

	// ErrNotAStruct is returned when a record argument is not a struct.
	ErrNotAStruct = errors.New("netql: record must be a struct")

	// ErrNoExecutor is returned when a terminal operation runs on a builder without a database.
	ErrNoExecutor = errors.New("netql: builder has no database")

	// ErrTransactionClosed is returned when trying to use a closed transaction.
	ErrTransactionClosed = errors.New("netql: transaction already closed")

	// ErrConversion is returned when a column value cannot be converted to its destination type.
	ErrConversion = errors.New("netql: value conversion failed")
)

// QueryError wraps an error with additional query context.
type QueryError struct {
	Err     error
	Query   string
	Args    []any
	Message string
}

func (e *QueryError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError creates a new QueryError with context.
func NewQueryError(err error, query string, args []any, message string) *QueryError {
	return &QueryError{
		Err:     err,
		Query:   query,
		Args:    args,
		Message: message,
	}
}

// WrapError prefixes err with the operation that failed. It returns nil for a nil err.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("netql: %s: %w", op, err)
}

// ValidationError represents an identifier validation error.
type ValidationError struct {
	Identifier string
	Context    string
	Reason     string
}

func (e *ValidationError) Error() string {
	return "netql: invalid " + e.Context + " '" + e.Identifier + "': " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// NewValidationError creates a new ValidationError.
func NewValidationError(identifier, context, reason string) *ValidationError {
	return &ValidationError{
		Identifier: identifier,
		Context:    context,
		Reason:     reason,
	}
}

// ConversionError reports a column value that could not be stored in its destination.
type ConversionError struct {
	Column string
	Target string
	Value  any
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("netql: cannot convert column %q value %v (%T) to %s", e.Column, e.Value, e.Value, e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
