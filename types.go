package netql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// ----------------------------------------------------------------------------
// Query Result Types
// ----------------------------------------------------------------------------

// QueryResult wraps the sql.Result of an INSERT, UPDATE or DELETE so that callers
// never touch a nil result.
type QueryResult struct {
	result sql.Result
}

// NewQueryResult wraps a driver result.
func NewQueryResult(result sql.Result) *QueryResult {
	return &QueryResult{result: result}
}

// LastInsertID returns the id generated by the statement. Drivers that cannot
// report it (lib/pq, pgx) return an error.
func (r *QueryResult) LastInsertID() (int64, error) {
	if r == nil || r.result == nil {
		return 0, sql.ErrNoRows
	}
	return r.result.LastInsertId()
}

// RowsAffected returns the number of rows the statement touched.
func (r *QueryResult) RowsAffected() (int64, error) {
	if r == nil || r.result == nil {
		return 0, sql.ErrNoRows
	}
	return r.result.RowsAffected()
}

// ----------------------------------------------------------------------------
// Logger Interface
// ----------------------------------------------------------------------------

// Logger receives every statement the execution scope sends to the driver.
type Logger interface {
	Log(query string, args []any, duration time.Duration, err error)
}

// NopLogger discards everything.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(string, []any, time.Duration, error) {}

// SlogLogger writes statements to a *slog.Logger: failures at error level,
// everything else at debug level.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a Logger backed by l, or slog.Default() when l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

// Log implements Logger.
func (s *SlogLogger) Log(query string, args []any, duration time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("query", query),
		slog.Any("args", args),
		slog.Duration("duration", duration),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
		s.logger.LogAttrs(context.Background(), slog.LevelError, "netql: statement failed", attrs...)
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "netql: statement", attrs...)
}
