package netql

import "github.com/biyonik/go-netql/dialect"

// Option configures a DB.
type Option func(*DB)

// WithDialect overrides the dialect resolved from the driver name.
func WithDialect(d dialect.Dialect) Option {
	return func(db *DB) {
		db.dialect = d
		db.dialectSet = true
	}
}

// WithScanner replaces the row-to-record mapper.
func WithScanner(s Scanner) Option {
	return func(db *DB) {
		db.scanner = s
	}
}

// WithDebug turns statement logging on. Without a logger option, statements go
// to slog.Default().
func WithDebug(enabled bool) Option {
	return func(db *DB) {
		db.debug = enabled
	}
}

// WithLogger sets the statement logger and turns logging on.
func WithLogger(logger Logger) Option {
	return func(db *DB) {
		db.logger = logger
		db.debug = logger != nil
	}
}

// WithIdentity sets the source of builder identities. The default is a Sequence
// starting at 1 owned by the DB.
func WithIdentity(src IdentitySource) Option {
	return func(db *DB) {
		db.identity = src
	}
}

// WithTablePrefix prepends prefix to every table named through Select, From,
// Insert, Update and Delete.
func WithTablePrefix(prefix string) Option {
	return func(db *DB) {
		db.prefix = prefix
	}
}

func applyOptions(db *DB, opts []Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(db)
		}
	}
}
