package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/logway/internal/socketrpc"
	"github.com/tinytelemetry/logway/internal/sqlstore"
	"gopkg.in/yaml.v3"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var printConfig bool
	var qa queryArgs

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logway/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&printConfig, "print-config", false, "print the effective configuration as YAML and exit")
	flag.StringVar(&qa.View, "query", "", "print one view from a running gateway over its socket (entries, loglevel, loglevelstats, timestats, worstcalls)")
	flag.StringVar(&qa.Backend, "backend", "", "backend for -query entries (rethinkdb or cratedb)")
	flag.StringVar(&qa.Min, "min", "", "window start for -query")
	flag.StringVar(&qa.Max, "max", "", "window end for -query")
	flag.StringVar(&qa.LogType, "logtype", "", "severity for -query loglevel")
	flag.Parse()

	if showVersion {
		fmt.Printf("Logway - Log Query Gateway\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if printConfig {
		out, err := yaml.Marshal(cfg.redacted())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		return
	}

	if qa.View != "" {
		if err := runQueryMode(cfg, qa, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	// No env prefix: RETHINK_HOST, CRATE_PORT, APP_PORT and friends map
	// directly onto the dashed keys.
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("app-port", defaultAppPort)
	v.SetDefault("bind-host", defaultBindHost)
	v.SetDefault("rethink-host", "")
	v.SetDefault("rethink-port", defaultRethinkPort)
	v.SetDefault("rethink-database", defaultRethinkDatabase)
	v.SetDefault("rethink-table", defaultRethinkTable)
	v.SetDefault("rethink-latency-index", defaultRethinkLatencyIndex)
	v.SetDefault("rethink-tls", true)
	v.SetDefault("crate-driver", defaultCrateDriver)
	v.SetDefault("crate-host", "")
	v.SetDefault("crate-port", defaultCratePort)
	v.SetDefault("crate-user", defaultCrateUser)
	v.SetDefault("crate-password", "")
	v.SetDefault("crate-database", defaultCrateDatabase)
	v.SetDefault("crate-table", defaultCrateTable)
	v.SetDefault("crate-dsn", "")
	v.SetDefault("duckdb-path", "")
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("max-open-conns", defaultMaxOpenConns)
	v.SetDefault("tracker-enabled", true)
	v.SetDefault("socket-enabled", false)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "logway", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		cfg.ConfigPath = v.ConfigFileUsed()
	}

	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return cfg, fmt.Errorf("invalid app-port: %d", cfg.AppPort)
	}
	if cfg.RethinkPort <= 0 || cfg.RethinkPort > 65535 {
		return cfg, fmt.Errorf("invalid rethink-port: %d", cfg.RethinkPort)
	}
	if cfg.CratePort <= 0 || cfg.CratePort > 65535 {
		return cfg, fmt.Errorf("invalid crate-port: %d", cfg.CratePort)
	}
	switch cfg.CrateDriver {
	case sqlstore.DriverPgx, sqlstore.DriverPostgres, sqlstore.DriverDuckDB:
	default:
		return cfg, fmt.Errorf("invalid crate-driver: %q (want pgx, postgres or duckdb)", cfg.CrateDriver)
	}
	if cfg.QueryTimeout <= 0 {
		return cfg, fmt.Errorf("invalid query-timeout: %s", cfg.QueryTimeout)
	}

	// Expand ~ in local paths
	if strings.HasPrefix(cfg.DuckDBPath, "~/") {
		cfg.DuckDBPath = filepath.Join(home, cfg.DuckDBPath[2:])
	}
	if strings.HasPrefix(cfg.SocketPath, "~/") {
		cfg.SocketPath = filepath.Join(home, cfg.SocketPath[2:])
	}

	cfg.APIAddr = net.JoinHostPort(cfg.BindHost, strconv.Itoa(cfg.AppPort))
	if cfg.rethinkEnabled() {
		cfg.RethinkAddr = net.JoinHostPort(cfg.RethinkHost, strconv.Itoa(cfg.RethinkPort))
	}

	return cfg, nil
}
