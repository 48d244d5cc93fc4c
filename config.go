package netql

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/biyonik/go-netql/dialect"
)

// ----------------------------------------------------------------------------
// Configuration
// ----------------------------------------------------------------------------

// Config describes a connection. It can be loaded from YAML (LoadConfig) or
// filled by viper through the mapstructure tags.
type Config struct {
	Driver          string            `yaml:"driver" mapstructure:"driver"`
	Host            string            `yaml:"host" mapstructure:"host"`
	Port            int               `yaml:"port" mapstructure:"port"`
	Database        string            `yaml:"database" mapstructure:"database"`
	Username        string            `yaml:"username" mapstructure:"username"`
	Password        string            `yaml:"password" mapstructure:"password"`
	Params          map[string]string `yaml:"params" mapstructure:"params"`
	Prefix          string            `yaml:"prefix" mapstructure:"prefix"`
	MaxOpenConns    int               `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int               `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration     `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration     `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	Debug           bool              `yaml:"debug" mapstructure:"debug"`
}

// DefaultConfig returns pool settings suitable for most services. Driver and
// address still have to be filled in.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. ${VAR} references are
// expanded from the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError("read config", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, WrapError("parse config "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dialect resolves the dialect from the driver name.
func (c *Config) Dialect() (dialect.Dialect, error) {
	return dialect.ForDriver(c.Driver)
}

// Validate checks that the config names a supported driver and a target.
func (c *Config) Validate() error {
	d, err := c.Dialect()
	if err != nil {
		return err
	}
	if c.Database == "" {
		return fmt.Errorf("netql: config: database is required")
	}
	if d.Provider != dialect.SQLite && c.Host == "" {
		return fmt.Errorf("netql: config: host is required for %s", d.Name())
	}
	return nil
}

// DSN renders the data source name in the format the configured driver expects.
func (c *Config) DSN() string {
	d, err := c.Dialect()
	if err != nil {
		return ""
	}
	switch d.Provider {
	case dialect.MySQL:
		return c.mysqlDSN()
	case dialect.PostgreSQL:
		return c.urlDSN("postgres", "/"+c.Database, nil)
	case dialect.SQLServer:
		return c.urlDSN("sqlserver", "", map[string]string{"database": c.Database})
	case dialect.Oracle:
		return fmt.Sprintf(`user=%q password=%q connectString="%s/%s"`, c.Username, c.Password, c.address(), c.Database)
	case dialect.SQLite:
		if len(c.Params) == 0 {
			return c.Database
		}
		return "file:" + c.Database + "?" + encodeParams(c.Params, nil)
	}
	return ""
}

func (c *Config) mysqlDSN() string {
	m := mysql.NewConfig()
	m.User = c.Username
	m.Passwd = c.Password
	m.Net = "tcp"
	m.Addr = c.address()
	m.DBName = c.Database
	m.ParseTime = true
	if len(c.Params) > 0 {
		m.Params = make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			m.Params[k] = v
		}
	}
	return m.FormatDSN()
}

func (c *Config) urlDSN(scheme, path string, extra map[string]string) string {
	u := url.URL{
		Scheme:   scheme,
		Host:     c.address(),
		Path:     path,
		RawQuery: encodeParams(c.Params, extra),
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

func (c *Config) address() string {
	if c.Port == 0 {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// encodeParams renders params in key order so DSNs are stable. params win over
// extra.
func encodeParams(params, extra map[string]string) string {
	q := make(url.Values, len(params)+len(extra))
	for k, v := range extra {
		q.Set(k, v)
	}
	for k, v := range params {
		q.Set(k, v)
	}
	return q.Encode()
}
