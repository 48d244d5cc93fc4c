// Command netql renders fluent statements offline and runs them against a
// database.
//
// Usage:
//
//	netql [flags] <command>
//
// Commands:
//   - render: print the SQL and bind parameters of a SELECT for a dialect
//   - query: run a SELECT (built from flags, or raw with --sql) and print the rows
//   - dialects: list the supported dialects
//   - version: print the version
//
// Connection settings come from --config (YAML), NETQL_* environment variables
// and flags, in increasing order of precedence.
package main

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	Execute()
}
