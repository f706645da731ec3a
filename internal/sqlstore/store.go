package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/tinytelemetry/logway/internal/model"
)

// Supported database/sql driver names.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Store runs the gateway queries against a SQL table. CrateDB is reached over
// its PostgreSQL wire protocol; DuckDB serves embedded local data.
type Store struct {
	db           *sql.DB
	driver       string
	table        string
	QueryTimeout time.Duration
}

// Config selects the driver and connection for a Store.
type Config struct {
	Driver       string
	DSN          string
	Table        string
	MaxOpenConns int
	QueryTimeout time.Duration
}

// Open connects to the configured database. For DuckDB an empty DSN opens an
// in-memory database and a file DSN has its parent directory created.
func Open(cfg Config) (*Store, error) {
	switch cfg.Driver {
	case DriverPgx, DriverPostgres:
	case DriverDuckDB:
		if cfg.DSN != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open: %w", model.ErrBackendUnavailable, cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return New(db, cfg.Driver, cfg.Table, cfg.QueryTimeout), nil
}

// New wraps an open handle. table may be schema-qualified ("doc.logs").
func New(db *sql.DB, driver, table string, queryTimeout time.Duration) *Store {
	if table == "" {
		table = "logs"
	}
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &Store{
		db:           db,
		driver:       driver,
		table:        quoteQualified(table),
		QueryTimeout: queryTimeout,
	}
}

// Name implements model.Backend.
func (s *Store) Name() string { return "cratedb" }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// PostgresDSN builds a key/value connection string understood by both pgx and lib/pq.
func PostgresDSN(host string, port int, user, password, database string) string {
	parts := []string{
		"host=" + host,
		fmt.Sprintf("port=%d", port),
		"sslmode=disable",
	}
	if user != "" {
		parts = append(parts, "user="+user)
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	if database != "" {
		parts = append(parts, "dbname="+database)
	}
	return strings.Join(parts, " ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
