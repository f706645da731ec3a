package main

import (
	"time"

	"github.com/tinytelemetry/logway/internal/sqlstore"
)

const (
	defaultAppPort             = 8080
	defaultBindHost            = "0.0.0.0"
	defaultRethinkPort         = 28015
	defaultRethinkDatabase     = "hackathon"
	defaultRethinkTable        = "logs"
	defaultRethinkLatencyIndex = "ms"
	defaultCrateDriver         = sqlstore.DriverPgx
	defaultCratePort           = 5432
	defaultCrateUser           = "crate"
	defaultCrateDatabase       = "doc"
	defaultCrateTable          = "logs"
	defaultQueryTimeout        = 30 * time.Second
	defaultMaxOpenConns        = 8
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	AppPort  int    `mapstructure:"app-port" yaml:"app-port"`
	BindHost string `mapstructure:"bind-host" yaml:"bind-host"`

	RethinkHost         string `mapstructure:"rethink-host" yaml:"rethink-host"`
	RethinkPort         int    `mapstructure:"rethink-port" yaml:"rethink-port"`
	RethinkDatabase     string `mapstructure:"rethink-database" yaml:"rethink-database"`
	RethinkTable        string `mapstructure:"rethink-table" yaml:"rethink-table"`
	RethinkLatencyIndex string `mapstructure:"rethink-latency-index" yaml:"rethink-latency-index"`
	RethinkTLS          bool   `mapstructure:"rethink-tls" yaml:"rethink-tls"`

	CrateDriver   string `mapstructure:"crate-driver" yaml:"crate-driver"`
	CrateHost     string `mapstructure:"crate-host" yaml:"crate-host"`
	CratePort     int    `mapstructure:"crate-port" yaml:"crate-port"`
	CrateUser     string `mapstructure:"crate-user" yaml:"crate-user"`
	CratePassword string `mapstructure:"crate-password" yaml:"crate-password"`
	CrateDatabase string `mapstructure:"crate-database" yaml:"crate-database"`
	CrateTable    string `mapstructure:"crate-table" yaml:"crate-table"`
	CrateDSN      string `mapstructure:"crate-dsn" yaml:"crate-dsn"`
	DuckDBPath    string `mapstructure:"duckdb-path" yaml:"duckdb-path"`

	QueryTimeout   time.Duration `mapstructure:"query-timeout" yaml:"query-timeout"`
	MaxOpenConns   int           `mapstructure:"max-open-conns" yaml:"max-open-conns"`
	TrackerEnabled bool          `mapstructure:"tracker-enabled" yaml:"tracker-enabled"`
	SocketEnabled  bool          `mapstructure:"socket-enabled" yaml:"socket-enabled"`
	SocketPath     string        `mapstructure:"socket-path" yaml:"socket-path"`

	APIAddr     string `mapstructure:"-" yaml:"-"`
	RethinkAddr string `mapstructure:"-" yaml:"-"`
	ConfigPath  string `mapstructure:"-" yaml:"-"` // not from config file
}

// rethinkEnabled reports whether a RethinkDB host was configured.
func (c appConfig) rethinkEnabled() bool {
	return c.RethinkHost != ""
}

// crateDSN resolves the connection string for the configured SQL driver. An
// empty result with a network driver means CrateDB is not configured.
func (c appConfig) crateDSN() string {
	if c.CrateDSN != "" {
		return c.CrateDSN
	}
	if c.CrateDriver == sqlstore.DriverDuckDB {
		return c.DuckDBPath
	}
	if c.CrateHost == "" {
		return ""
	}
	return sqlstore.PostgresDSN(c.CrateHost, c.CratePort, c.CrateUser, c.CratePassword, c.CrateDatabase)
}

func (c appConfig) crateEnabled() bool {
	return c.CrateDriver == sqlstore.DriverDuckDB || c.crateDSN() != ""
}

// redacted returns a copy safe to print.
func (c appConfig) redacted() appConfig {
	if c.CratePassword != "" {
		c.CratePassword = "********"
	}
	if c.CrateDSN != "" {
		c.CrateDSN = "********"
	}
	return c
}
