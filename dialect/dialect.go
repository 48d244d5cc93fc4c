// Package dialect holds everything netql knows about a target engine: the identifier
// quote pair, the bind-parameter symbol, how the driver expects its arguments and how
// a row limit is spelled. It also owns the clause representation and the Grammar that
// renders it, so the root package can hand its state over without an import cycle.
package dialect

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Provider
// ----------------------------------------------------------------------------

// Provider identifies a relational engine.
type Provider int

const (
	ProviderUnknown Provider = iota
	SQLServer
	MySQL
	PostgreSQL
	Oracle
	SQLite
)

// String returns the provider name used in configuration files.
func (p Provider) String() string {
	switch p {
	case SQLServer:
		return "sqlserver"
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgres"
	case Oracle:
		return "oracle"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ArgStyle tells how compiled arguments reach the database/sql driver.
type ArgStyle int

const (
	// ArgNamed keeps the named placeholders and passes sql.Named arguments.
	ArgNamed ArgStyle = iota
	// ArgQuestion rewrites every placeholder to "?".
	ArgQuestion
	// ArgDollar rewrites every placeholder to "$n".
	ArgDollar
)

// LimitStyle tells how a row limit is rendered.
type LimitStyle int

const (
	// LimitOffset renders " LIMIT n" and " LIMIT n OFFSET m".
	LimitOffset LimitStyle = iota
	// OffsetFetch renders " OFFSET m ROWS FETCH NEXT n ROWS ONLY".
	OffsetFetch
)

// ----------------------------------------------------------------------------
// Dialect Profile
// ----------------------------------------------------------------------------

// Dialect is the per-engine profile. It is a plain value and safe to copy.
type Dialect struct {
	Provider   Provider
	StartQuote string
	EndQuote   string
	BindSymbol string
	Args       ArgStyle
	Limit      LimitStyle

	// StrictPaging marks engines whose OFFSET/FETCH needs an ORDER BY and a
	// positive FETCH count.
	StrictPaging bool
}

var profiles = map[Provider]Dialect{
	SQLServer:  {Provider: SQLServer, StartQuote: "[", EndQuote: "]", BindSymbol: "@", Args: ArgNamed, Limit: OffsetFetch, StrictPaging: true},
	MySQL:      {Provider: MySQL, StartQuote: "`", EndQuote: "`", BindSymbol: "@", Args: ArgQuestion, Limit: LimitOffset},
	PostgreSQL: {Provider: PostgreSQL, StartQuote: `"`, EndQuote: `"`, BindSymbol: ":", Args: ArgDollar, Limit: LimitOffset},
	Oracle:     {Provider: Oracle, StartQuote: `"`, EndQuote: `"`, BindSymbol: ":", Args: ArgNamed, Limit: OffsetFetch},
	SQLite:     {Provider: SQLite, StartQuote: `"`, EndQuote: `"`, BindSymbol: "@", Args: ArgQuestion, Limit: LimitOffset},
}

// driverNames maps database/sql driver names onto providers.
var driverNames = map[string]Provider{
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"azuresql":   SQLServer,
	"mysql":      MySQL,
	"postgres":   PostgreSQL,
	"postgresql": PostgreSQL,
	"pgx":        PostgreSQL,
	"oracle":     Oracle,
	"godror":     Oracle,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// For returns the profile of a known provider.
func For(p Provider) (Dialect, error) {
	d, ok := profiles[p]
	if !ok {
		return Dialect{}, &DialectError{Message: fmt.Sprintf("unsupported provider %d", int(p)), Err: ErrUnsupported}
	}
	return d, nil
}

// MustFor is For for package-level variables and tests.
func MustFor(p Provider) Dialect {
	d, err := For(p)
	if err != nil {
		panic(err)
	}
	return d
}

// ForDriver resolves a database/sql driver name ("mysql", "pgx", "sqlite", ...).
func ForDriver(driver string) (Dialect, error) {
	p, ok := driverNames[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return Dialect{}, &DialectError{Message: fmt.Sprintf("unsupported driver %q", driver), Err: ErrUnsupported}
	}
	return profiles[p], nil
}

// Custom builds a profile from a start quote and a bind symbol. The end quote is
// derived from the start quote ("[" pairs with "]", anything else pairs with itself).
func Custom(startQuote, bindSymbol string, args ArgStyle) Dialect {
	end := startQuote
	if startQuote == "[" {
		end = "]"
	}
	return Dialect{
		Provider:   ProviderUnknown,
		StartQuote: startQuote,
		EndQuote:   end,
		BindSymbol: bindSymbol,
		Args:       args,
		Limit:      LimitOffset,
	}
}

// Providers lists the built-in providers in a stable order.
func Providers() []Provider {
	return []Provider{SQLServer, MySQL, PostgreSQL, Oracle, SQLite}
}

// Name returns the provider name.
func (d Dialect) Name() string {
	return d.Provider.String()
}

// Placeholder returns the bind expression for a parameter name, e.g. "@id_1_0".
func (d Dialect) Placeholder(name string) string {
	return d.BindSymbol + name
}

// ----------------------------------------------------------------------------
// Sentinel Errors (dialect-specific)
// ----------------------------------------------------------------------------

var (
	ErrUnsupported     = &DialectError{Message: "unsupported dialect"}
	ErrNoTable         = &DialectError{Message: "no table specified"}
	ErrNoColumns       = &DialectError{Message: "no columns specified"}
	ErrEmptyBatch      = &DialectError{Message: "cannot insert empty batch"}
	ErrDuplicateParam  = &DialectError{Message: "duplicate bind parameter"}
	ErrInconsistentRow = &DialectError{Message: "bulk row does not match the column list"}
)

// DialectError represents a rendering or configuration failure.
type DialectError struct {
	Message string
	Err     error
}

// Error returns the message prefixed with the package name.
func (e *DialectError) Error() string {
	return "dialect: " + e.Message
}

// Unwrap exposes the sentinel a detailed error was derived from.
func (e *DialectError) Unwrap() error {
	return e.Err
}
