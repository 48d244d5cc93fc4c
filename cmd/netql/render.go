package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	netql "github.com/biyonik/go-netql"
	"github.com/biyonik/go-netql/dialect"
)

var (
	renderDialect string
	renderSelect  selectFlags
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a SELECT without a database",
	Example: `  # SQL Server
  netql render --dialect sqlserver --table users --columns id,name --where id=5

  # PostgreSQL, paged
  netql render --dialect postgres --table users --order name --limit 10 --offset 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dialect.ForDriver(renderDialect)
		if err != nil {
			return err
		}
		b, err := netql.New(d)
		if err != nil {
			return err
		}
		if _, err := renderSelect.apply(b); err != nil {
			return err
		}
		st, err := b.Statement()
		if err != nil {
			return err
		}
		return writeYAML(renderOutput(d, st))
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderDialect, "dialect", "sqlserver", "dialect or driver name")
	renderSelect.register(renderCmd.Flags())
}

type renderedParam struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
	Type  string `yaml:"type"`
}

type rendered struct {
	Dialect string          `yaml:"dialect"`
	Named   string          `yaml:"named"`
	SQL     string          `yaml:"sql"`
	Params  []renderedParam `yaml:"params"`
}

func renderOutput(d dialect.Dialect, st netql.Statement) rendered {
	out := rendered{Dialect: d.Name(), Named: st.Named, SQL: st.SQL}
	for _, p := range st.Params {
		out.Params = append(out.Params, renderedParam{Name: p.Name, Value: p.Value, Type: p.Type.String()})
	}
	return out
}

func writeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
