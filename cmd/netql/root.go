package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	netql "github.com/biyonik/go-netql"
)

// Global state set during PersistentPreRunE
var (
	cfg *netql.Config
	dsn string
)

var rootCmd = &cobra.Command{
	Use:   "netql",
	Short: "Fluent SQL builder toolbox",
	Long: `netql - fluent SQL builder toolbox

Renders SELECT statements for any supported dialect without a database, and
runs them against one when a connection is configured.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "completion", "version", "dialects", "render":
			return nil
		}

		var err error
		cfg, dsn, err = loadConfig(cmd.Root().PersistentFlags())
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	registerGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(dialectsCmd)
	rootCmd.AddCommand(versionCmd)
}

func registerGlobalFlags(f *pflag.FlagSet) {
	f.String("config", "", "config file (YAML)")
	f.Bool("debug", false, "log every statement to stderr")
	f.String("driver", "", "database/sql driver name (mysql, postgres, pgx, sqlite, ...)")
	f.String("dsn", "", "data source name; overrides the connection fields of the config")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "netql:", err)
		os.Exit(1)
	}
}

// loadConfig merges defaults, the config file, NETQL_* variables and flags.
func loadConfig(flags *pflag.FlagSet) (*netql.Config, string, error) {
	v := viper.New()

	def := netql.DefaultConfig()
	v.SetDefault("host", def.Host)
	v.SetDefault("max_open_conns", def.MaxOpenConns)
	v.SetDefault("max_idle_conns", def.MaxIdleConns)
	v.SetDefault("conn_max_lifetime", def.ConnMaxLifetime)
	v.SetDefault("conn_max_idle_time", def.ConnMaxIdleTime)

	v.SetEnvPrefix("NETQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows about.
	for _, key := range []string{"host", "port", "database", "username", "password", "prefix"} {
		if err := v.BindEnv(key); err != nil {
			return nil, "", err
		}
	}

	for _, name := range []string{"driver", "dsn", "debug"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return nil, "", err
		}
	}

	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, "", err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config file: %w", err)
		}
	}

	var c netql.Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, "", fmt.Errorf("unmarshaling config: %w", err)
	}
	if c.Driver == "" {
		return nil, "", fmt.Errorf("driver is required (--driver, NETQL_DRIVER or config)")
	}

	source := v.GetString("dsn")
	if source == "" {
		if err := c.Validate(); err != nil {
			return nil, "", err
		}
		source = c.DSN()
	}
	return &c, source, nil
}

// connect opens the configured database.
func connect() (*netql.DB, error) {
	opts := []netql.Option{netql.WithDebug(cfg.Debug)}
	if cfg.Prefix != "" {
		opts = append(opts, netql.WithTablePrefix(cfg.Prefix))
	}
	db, err := netql.Connect(cfg.Driver, dsn, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.DB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.DB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return db, nil
}
