package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	netql "github.com/biyonik/go-netql"
	"github.com/biyonik/go-netql/dialect"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in     string
		column string
		op     string
		value  any
	}{
		{"id=5", "id", "=", int64(5)},
		{"age >= 18", "age", ">=", int64(18)},
		{"score<2.5", "score", "<", 2.5},
		{"role<>admin", "role", "<>", "admin"},
		{"name!='ann'", "name", "!=", "ann"},
		{"active=true", "active", "=", true},
		{"deleted_at=null", "deleted_at", "=", nil},
		{"note=a=b", "note", "=", "a=b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			column, op, value, err := parseCondition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.column, column)
			assert.Equal(t, tt.op, op)
			assert.Equal(t, tt.value, value)
		})
	}

	_, _, _, err := parseCondition("=5")
	assert.ErrorContains(t, err, "no column")
	_, _, _, err = parseCondition("id")
	assert.ErrorContains(t, err, "no operator")
}

func TestTypedValue(t *testing.T) {
	assert.Equal(t, int64(-3), typedValue("-3"))
	assert.Equal(t, 1e3, typedValue("1e3"))
	assert.Equal(t, false, typedValue("FALSE"))
	assert.Equal(t, "t", typedValue("t"))
	assert.Equal(t, "", typedValue(""))
	assert.Nil(t, typedValue("NULL"))
}

func TestSelectFlagsApply(t *testing.T) {
	s := selectFlags{
		table:   "users",
		columns: "id,name",
		where:   []string{"age>=18", "email=null", "phone!=null"},
		orWhere: []string{"role=admin", "team=null"},
		order:   "name",
		desc:    true,
		limit:   10,
		offset:  20,
	}

	b, err := netql.New(dialect.MustFor(dialect.SQLServer))
	require.NoError(t, err)
	_, err = s.apply(b)
	require.NoError(t, err)

	st, err := b.Statement()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT [id],[name] FROM [users] WHERE [age] >= @age_1_0 AND [email] IS NULL AND [phone] IS NOT NULL"+
			" OR [role] = @role_1_3 OR [team] IS NULL ORDER BY [name] DESC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
		st.Named)
}

func TestSelectFlagsDefaults(t *testing.T) {
	var s selectFlags
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	s.register(fs)
	require.NoError(t, fs.Parse([]string{"--table", "users"}))

	b, err := netql.New(dialect.MustFor(dialect.MySQL))
	require.NoError(t, err)
	_, err = s.apply(b)
	require.NoError(t, err)

	query, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users`", query)
}

func TestSelectFlagsErrors(t *testing.T) {
	b, err := netql.New(dialect.MustFor(dialect.SQLServer))
	require.NoError(t, err)

	_, err = (&selectFlags{}).apply(b)
	assert.ErrorContains(t, err, "--table")

	_, err = (&selectFlags{table: "users", where: []string{"broken"}}).apply(b.Reset())
	assert.ErrorContains(t, err, "no operator")

	_, err = (&selectFlags{table: "users", limit: -1, order: "name", where: []string{"a=1"}, orWhere: []string{"x"}}).apply(b.Reset())
	assert.Error(t, err)
}

func TestRenderOutput(t *testing.T) {
	b, err := netql.New(dialect.MustFor(dialect.PostgreSQL))
	require.NoError(t, err)
	st, err := b.Select("id", "users").Where("id", 5).Statement()
	require.NoError(t, err)

	out, err := yaml.Marshal(renderOutput(dialect.MustFor(dialect.PostgreSQL), st))
	require.NoError(t, err)

	var back rendered
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "postgres", back.Dialect)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE "id" = $1`, back.SQL)
	require.Len(t, back.Params, 1)
	assert.Equal(t, "id_1_0", back.Params[0].Name)
	assert.Equal(t, 5, back.Params[0].Value)
}

func TestDialectTable(t *testing.T) {
	table := dialectTable()
	require.Len(t, table, len(dialect.Providers()))

	byName := map[string]dialectInfo{}
	for _, info := range table {
		byName[info.Name] = info
	}
	assert.Equal(t, "[name]", byName["sqlserver"].Quote)
	assert.Equal(t, "OFFSET m ROWS FETCH NEXT n ROWS ONLY", byName["sqlserver"].Paging)
	assert.Equal(t, "?", byName["mysql"].Placeholder)
	assert.Equal(t, "$n", byName["postgres"].Placeholder)
	assert.Equal(t, ":name", byName["oracle"].Placeholder)
}

func globalFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("netql", pflag.ContinueOnError)
	registerGlobalFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite\ndatabase: app.db\nprefix: app_\n"), 0o600))

	flags := globalFlags(t, "--config", path)

	c, source, err := loadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Driver)
	assert.Equal(t, "app_", c.Prefix)
	assert.Equal(t, 25, c.MaxOpenConns)
	assert.Equal(t, "app.db", source)

	t.Setenv("NETQL_DSN", "file:other.db")
	_, source, err = loadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "file:other.db", source)
}

func TestLoadConfigRequiresDriver(t *testing.T) {
	t.Setenv("NETQL_DRIVER", "")

	_, _, err := loadConfig(globalFlags(t))
	assert.ErrorContains(t, err, "driver is required")
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("NETQL_DRIVER", "postgres")
	t.Setenv("NETQL_HOST", "db")
	t.Setenv("NETQL_PORT", "5433")
	t.Setenv("NETQL_DATABASE", "app")
	t.Setenv("NETQL_USERNAME", "svc")
	t.Setenv("NETQL_PASSWORD", "pw")

	c, source, err := loadConfig(globalFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 5433, c.Port)
	assert.Equal(t, "postgres://svc:pw@db:5433/app", source)
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("NETQL_DRIVER", "mysql")

	c, source, err := loadConfig(globalFlags(t, "--driver", "sqlite", "--dsn", "file:flag.db", "--debug"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Driver)
	assert.True(t, c.Debug)
	assert.Equal(t, "file:flag.db", source)
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "debug", "driver", "dsn"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}
