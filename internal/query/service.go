// Package query composes request parameters, backend adapters and reshaping
// into the gateway views. Both the HTTP and the socket RPC surfaces call it.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/reshape"
	"github.com/tinytelemetry/logway/internal/severity"
	"github.com/tinytelemetry/logway/internal/timestamp"
)

// Backend names accepted by Entries.
const (
	BackendRethinkDB = "rethinkdb"
	BackendCrateDB   = "cratedb"
)

// ErrUnknownBackend is returned by Entries for a name other than the two stores.
var ErrUnknownBackend = errors.New("unknown backend")

// WorstSource serves the current worst-latency snapshot.
type WorstSource interface {
	Current() []model.LogEntry
}

// Service answers the read views.
type Service struct {
	rethink model.Backend
	crate   model.Backend
	worst   WorstSource
}

// NewService wires the two stores and the worst-latency snapshot. Any of them
// may be nil; views that need a missing piece report ErrBackendUnavailable.
func NewService(rethink, crate model.Backend, worst WorstSource) *Service {
	return &Service{rethink: rethink, crate: crate, worst: worst}
}

// lookup resolves a backend name. An unconfigured store is returned as nil.
func (s *Service) lookup(name string) (model.Backend, error) {
	switch name {
	case BackendRethinkDB:
		return s.rethink, nil
	case BackendCrateDB:
		return s.crate, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

func (s *Service) backend(name string) (model.Backend, error) {
	b, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s is not configured", model.ErrBackendUnavailable, name)
	}
	return b, nil
}

// Entries returns up to model.MaxRows raw entries of the named backend in
// [min, max). The name and the window are validated before the store is used.
func (s *Service) Entries(ctx context.Context, backend, min, max string) ([]model.LogEntry, error) {
	if _, err := s.lookup(backend); err != nil {
		return nil, err
	}
	w, err := timestamp.ParseWindow(min, max)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(backend)
	if err != nil {
		return nil, err
	}
	entries, err := b.RawQuery(ctx, w, model.MaxRows)
	if err != nil {
		return nil, err
	}
	return reshape.Entries(entries), nil
}

// EntriesByLevel returns RethinkDB entries of one severity. The logtype is
// validated first; the window is optional.
func (s *Service) EntriesByLevel(ctx context.Context, min, max, logtype string) ([]model.LogEntry, error) {
	level, err := severity.FromName(logtype)
	if err != nil {
		return nil, err
	}
	w, err := timestamp.ParseOptionalWindow(min, max)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(BackendRethinkDB)
	if err != nil {
		return nil, err
	}
	entries, err := b.FilteredQuery(ctx, w, level.Code(), model.MaxRows)
	if err != nil {
		return nil, err
	}
	return reshape.Entries(entries), nil
}

// LevelStats returns per-day severity counts of RethinkDB entries. The window
// is optional.
func (s *Service) LevelStats(ctx context.Context, min, max string) (*reshape.DailyLevels, error) {
	w, err := timestamp.ParseOptionalWindow(min, max)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(BackendRethinkDB)
	if err != nil {
		return nil, err
	}
	groups, err := b.GroupedCountByDayAndLevel(ctx, w)
	if err != nil {
		return nil, err
	}
	return reshape.LevelStats(groups)
}

// TimeStats returns the eleven-bucket latency histogram of RethinkDB entries in [min, max).
func (s *Service) TimeStats(ctx context.Context, min, max string) (reshape.Histogram, error) {
	w, err := timestamp.ParseWindow(min, max)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(BackendRethinkDB)
	if err != nil {
		return nil, err
	}
	return reshape.LatencyHistogram(ctx, b, w)
}

// WorstCalls returns the current worst-latency snapshot without touching a backend.
func (s *Service) WorstCalls() []model.LogEntry {
	if s.worst == nil {
		return []model.LogEntry{}
	}
	return reshape.Entries(s.worst.Current())
}
