package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/logway/internal/httpserver"
	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/query"
	"github.com/tinytelemetry/logway/internal/rethink"
	"github.com/tinytelemetry/logway/internal/socketrpc"
	"github.com/tinytelemetry/logway/internal/sqlstore"
	"github.com/tinytelemetry/logway/internal/tracker"
	"golang.org/x/sync/errgroup"
)

// backends holds whichever stores were configured. Nil fields are unset.
type backends struct {
	rethink *rethink.Store
	crate   *sqlstore.Store
}

func (b backends) Close() {
	if b.rethink != nil {
		_ = b.rethink.Close()
	}
	if b.crate != nil {
		_ = b.crate.Close()
	}
}

func openBackends(cfg appConfig) (backends, error) {
	var b backends

	if cfg.rethinkEnabled() {
		rs, err := rethink.Connect(rethink.Config{
			Address:      cfg.RethinkAddr,
			Database:     cfg.RethinkDatabase,
			Table:        cfg.RethinkTable,
			LatencyIndex: cfg.RethinkLatencyIndex,
			TLS:          cfg.RethinkTLS,
			MaxOpen:      cfg.MaxOpenConns,
			QueryTimeout: cfg.QueryTimeout,
		})
		if err != nil {
			return b, fmt.Errorf("failed to connect to RethinkDB: %w", err)
		}
		b.rethink = rs
	} else {
		log.Printf("server: rethink-host not set, RethinkDB views will report unavailable")
	}

	if cfg.crateEnabled() {
		ss, err := sqlstore.Open(sqlstore.Config{
			Driver:       cfg.CrateDriver,
			DSN:          cfg.crateDSN(),
			Table:        cfg.CrateTable,
			MaxOpenConns: cfg.MaxOpenConns,
			QueryTimeout: cfg.QueryTimeout,
		})
		if err != nil {
			b.Close()
			return b, fmt.Errorf("failed to open CrateDB store: %w", err)
		}
		b.crate = ss
	} else {
		log.Printf("server: crate-host not set, /logs/cratedb will report unavailable")
	}

	return b, nil
}

// runServer starts the HTTP gateway, the optional socket surface and the
// worst-latency tracker, and blocks until SIGINT or SIGTERM.
func runServer(cfg appConfig) error {
	configureRuntimeLogger()

	stores, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	// Interface values stay nil for stores that were not configured.
	var rethinkBackend, crateBackend model.Backend
	if stores.rethink != nil {
		rethinkBackend = stores.rethink
	}
	if stores.crate != nil {
		crateBackend = stores.crate
	}

	var worst *tracker.Tracker
	var worstSource query.WorstSource
	var trackerStatus httpserver.TrackerStatus
	if cfg.TrackerEnabled && stores.rethink != nil {
		worst = tracker.New(stores.rethink, model.WorstCallsCapacity)
		worstSource = worst
		trackerStatus = worst
	}

	svc := query.NewService(rethinkBackend, crateBackend, worstSource)

	apiServer := httpserver.NewServer(cfg.APIAddr, svc, trackerStatus)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer apiServer.Stop()

	socketUp := false
	if cfg.SocketEnabled {
		sockServer := socketrpc.NewServer(cfg.SocketPath, svc)
		if err := sockServer.Start(); err != nil {
			log.Printf("Warning: failed to start socket server: %v", err)
		} else {
			socketUp = true
			defer sockServer.Stop()
		}
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		if socketUp {
			cleanupSocket(cfg.SocketPath)
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, stores, worst != nil, socketUp)

	g, gctx := errgroup.WithContext(ctx)

	if worst != nil {
		g.Go(func() error {
			return worst.Run(gctx)
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	signal.Stop(sigCh)
	return nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
}

func printStartupBanner(cfg appConfig, stores backends, trackerOn, socketOn bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦  ╔═╗╔═╗╦ ╦╔═╗╦ ╦
    ║  ║ ║║ ╦║║║╠═╣╚╦╝
    ╩═╝╚═╝╚═╝╚╩╝╩ ╩ ╩ `)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	if socketOn {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	// Backends
	lines = append(lines, bold.Render("    Backends"))
	lines = append(lines, "")
	if stores.rethink != nil {
		lines = append(lines, fmt.Sprintf("    %s  RethinkDB      %s", check, dim.Render(cfg.RethinkAddr+"/"+cfg.RethinkDatabase+"."+cfg.RethinkTable)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  RethinkDB      %s", dot, dim.Render("not configured")))
	}
	if stores.crate != nil {
		lines = append(lines, fmt.Sprintf("    %s  CrateDB        %s", check, dim.Render(crateLabel(cfg))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  CrateDB        %s", dot, dim.Render("not configured")))
	}
	lines = append(lines, "")

	// Runtime
	lines = append(lines, bold.Render("    Runtime"))
	lines = append(lines, "")
	if trackerOn {
		lines = append(lines, fmt.Sprintf("    %s  Worst Calls    %s", check, dim.Render(fmt.Sprintf("top %d by %s", model.WorstCallsCapacity, cfg.RethinkLatencyIndex))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Worst Calls    %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Query Timeout  %s", check, dim.Render(cfg.QueryTimeout.String())))

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func crateLabel(cfg appConfig) string {
	if cfg.CrateDriver == sqlstore.DriverDuckDB {
		if cfg.DuckDBPath == "" {
			return "duckdb (in-memory)"
		}
		return "duckdb " + shortenPath(cfg.DuckDBPath)
	}
	if cfg.CrateDSN != "" {
		return cfg.CrateDriver + " (custom dsn)"
	}
	return fmt.Sprintf("%s %s:%d/%s", cfg.CrateDriver, cfg.CrateHost, cfg.CratePort, cfg.CrateTable)
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
