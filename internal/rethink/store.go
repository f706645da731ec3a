package rethink

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/tinytelemetry/logway/internal/model"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// Config holds RethinkDB connection and schema parameters.
type Config struct {
	Address      string
	Database     string
	Table        string
	TimeIndex    string
	LatencyIndex string
	TLS          bool
	MaxOpen      int
	QueryTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = "logs"
	}
	if c.TimeIndex == "" {
		c.TimeIndex = "time"
	}
	if c.LatencyIndex == "" {
		c.LatencyIndex = "ms"
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 30 * time.Second
	}
	return c
}

// Store runs the gateway queries against a RethinkDB table.
type Store struct {
	session      r.QueryExecutor
	table        string
	timeIndex    string
	latencyIndex string
	QueryTimeout time.Duration
}

// Connect opens a session pool to the configured server.
func Connect(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	opts := r.ConnectOpts{
		Address:  cfg.Address,
		Database: cfg.Database,
		MaxOpen:  cfg.MaxOpen,
	}
	if cfg.TLS {
		// Hosted clusters present self-signed certificates.
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	session, err := r.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: rethinkdb: connect %s: %w", model.ErrBackendUnavailable, cfg.Address, err)
	}
	return New(session, cfg), nil
}

// New wraps an existing session (or mock) as a Store.
func New(session r.QueryExecutor, cfg Config) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		session:      session,
		table:        cfg.Table,
		timeIndex:    cfg.TimeIndex,
		latencyIndex: cfg.LatencyIndex,
		QueryTimeout: cfg.QueryTimeout,
	}
}

// Name implements model.Backend.
func (s *Store) Name() string { return "rethinkdb" }

// Close closes the underlying session when it is a real connection.
func (s *Store) Close() error {
	if sess, ok := s.session.(*r.Session); ok {
		return sess.Close()
	}
	return nil
}

// queryCtx bounds a single query by the configured timeout.
func (s *Store) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.QueryTimeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: rethinkdb: %s: %w", model.ErrBackendUnavailable, op, err)
}
