package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	netql "github.com/biyonik/go-netql"
)

var (
	querySQL    string
	querySelect selectFlags
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a SELECT and print the rows as YAML",
	Example: `  # From flags
  netql query --config netql.yaml --table users --where id=5

  # Raw statement
  NETQL_DRIVER=sqlite NETQL_DATABASE=app.db netql query --sql "SELECT COUNT(*) AS n FROM users"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd)
	},
}

func init() {
	queryCmd.Flags().StringVar(&querySQL, "sql", "", "raw SELECT to run instead of --table")
	querySelect.register(queryCmd.Flags())
}

func runQuery(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	b := db.Builder()
	if querySQL != "" {
		b.Query(querySQL)
	} else if _, err := querySelect.apply(b); err != nil {
		return err
	}

	var rows []map[string]any
	n, err := b.ReadContext(ctx, func(r *netql.Row) error {
		row := r.Map()
		for k, v := range row {
			if raw, ok := v.([]byte); ok {
				row[k] = string(raw)
			}
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return err
	}
	if err := writeYAML(rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d row(s)\n", n)
	return err
}
