package netql

import (
	"context"
	"database/sql"

	"github.com/biyonik/go-netql/dialect"
)

// Version is the library version.
const Version = "0.3.0"

// Connect opens a database through database/sql, verifies it with a ping and
// resolves the dialect from the driver name. An unknown driver name is a
// configuration error reported before any connection is opened, unless
// WithDialect supplies the dialect explicitly.
func Connect(driverName, dataSourceName string, opts ...Option) (*DB, error) {
	probe := &DB{}
	applyOptions(probe, opts)
	d := probe.dialect
	if !probe.dialectSet {
		var err error
		if d, err = dialect.ForDriver(driverName); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, WrapError("connect", err)
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, WrapError("ping", err)
	}

	return NewDB(sqlDB, d, opts...)
}

// ConnectWithConfig connects using cfg and applies its pool settings.
func ConnectWithConfig(cfg *Config, opts ...Option) (*DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Prefix != "" {
		opts = append([]Option{WithTablePrefix(cfg.Prefix)}, opts...)
	}
	if cfg.Debug {
		opts = append([]Option{WithDebug(true)}, opts...)
	}

	db, err := Connect(cfg.Driver, cfg.DSN(), opts...)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.DB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.DB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.DB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.DB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return db, nil
}

// New returns a builder that is not attached to a database. It renders
// statements (ToSQL, Statement) but every terminal operation fails with
// ErrNoExecutor.
func New(d dialect.Dialect, opts ...Option) (*Builder, error) {
	db, err := NewDB(nil, d, opts...)
	if err != nil {
		return nil, err
	}
	return db.Builder(), nil
}

// Raw marks sql as literal text for any argument that would otherwise be quoted
// or bound.
func Raw(sql string) string {
	return dialect.Raw(sql)
}
