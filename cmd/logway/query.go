package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/query"
	"github.com/tinytelemetry/logway/internal/reshape"
	"github.com/tinytelemetry/logway/internal/socketrpc"
)

// viewClient is the part of socketrpc.Client used by -query.
type viewClient interface {
	Entries(backend, min, max string) ([]model.LogEntry, error)
	EntriesByLevel(min, max, logtype string) ([]model.LogEntry, error)
	LevelStats(min, max string) (map[string][]reshape.LevelCount, error)
	TimeStats(min, max string) (map[string]int64, error)
	WorstCalls() ([]model.LogEntry, error)
}

// queryArgs carries the view parameters given on the command line.
type queryArgs struct {
	View    string
	Backend string
	Min     string
	Max     string
	LogType string
}

// Views accepted by -query, named after their HTTP routes.
const (
	viewEntries    = "entries"
	viewLogLevel   = "loglevel"
	viewLevelStats = "loglevelstats"
	viewTimeStats  = "timestats"
	viewWorstCalls = "worstcalls"
)

// runQueryMode dials a running gateway's socket and prints one view.
func runQueryMode(cfg appConfig, args queryArgs, out io.Writer) error {
	client, err := socketrpc.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("is the gateway running with socket-enabled? %w", err)
	}
	defer client.Close()
	return runQuery(client, args, out)
}

func runQuery(client viewClient, args queryArgs, out io.Writer) error {
	var (
		result any
		err    error
	)
	switch args.View {
	case viewEntries:
		backend := args.Backend
		if backend == "" {
			backend = query.BackendRethinkDB
		}
		result, err = client.Entries(backend, args.Min, args.Max)
	case viewLogLevel:
		result, err = client.EntriesByLevel(args.Min, args.Max, args.LogType)
	case viewLevelStats:
		result, err = client.LevelStats(args.Min, args.Max)
	case viewTimeStats:
		result, err = client.TimeStats(args.Min, args.Max)
	case viewWorstCalls:
		result, err = client.WorstCalls()
	default:
		return fmt.Errorf("unknown view %q (want %s, %s, %s, %s or %s)", args.View,
			viewEntries, viewLogLevel, viewLevelStats, viewTimeStats, viewWorstCalls)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
