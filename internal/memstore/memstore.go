// Package memstore is an in-memory model.Backend and model.LatencyFeed. It
// applies the same window, level, limit and latency semantics as the real
// adapters and is used as the test double of the read surfaces.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/logway/internal/model"
)

// Store holds entries in insertion order, which stands in for index order.
type Store struct {
	name string

	mu       sync.RWMutex
	entries  []model.LogEntry
	failWith error
	watchers []*stream

	calls atomic.Int64
}

// New creates a store preloaded with entries.
func New(name string, entries ...model.LogEntry) *Store {
	return &Store{name: name, entries: entries}
}

// Name implements model.Backend.
func (s *Store) Name() string { return s.name }

// Add appends entries.
func (s *Store) Add(entries ...model.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// Fail makes every subsequent query return err wrapped as a backend outage.
// Passing nil restores normal operation.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Calls reports how many backend operations have been issued.
func (s *Store) Calls() int64 { return s.calls.Load() }

func (s *Store) begin() error {
	s.calls.Add(1)
	if s.failWith != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrBackendUnavailable, s.name, s.failWith)
	}
	return nil
}

func inWindow(e model.LogEntry, w model.TimeWindow) bool {
	if w.Unbounded() {
		return true
	}
	t, ok := e.Time()
	return ok && w.Contains(t)
}

// RawQuery implements model.Backend.
func (s *Store) RawQuery(ctx context.Context, w model.TimeWindow, limit int) ([]model.LogEntry, error) {
	return s.selectEntries(w, limit, func(model.LogEntry) bool { return true })
}

// FilteredQuery implements model.Backend.
func (s *Store) FilteredQuery(ctx context.Context, w model.TimeWindow, level int, limit int) ([]model.LogEntry, error) {
	return s.selectEntries(w, limit, func(e model.LogEntry) bool {
		l, ok := e.Level()
		return ok && l == level
	})
}

func (s *Store) selectEntries(w model.TimeWindow, limit int, keep func(model.LogEntry) bool) ([]model.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.begin(); err != nil {
		return nil, err
	}

	limit = model.ClampLimit(limit)
	var out []model.LogEntry
	for _, e := range s.entries {
		if len(out) >= limit {
			break
		}
		if inWindow(e, w) && keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GroupedCountByDayAndLevel implements model.Backend. Groups are reported in
// first-seen order.
func (s *Store) GroupedCountByDayAndLevel(ctx context.Context, w model.TimeWindow) ([]model.GroupedCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.begin(); err != nil {
		return nil, err
	}

	type key struct{ day, month, year, level int }
	index := make(map[key]int)
	var out []model.GroupedCount
	for _, e := range s.entries {
		t, ok := e.Time()
		if !ok || !inWindow(e, w) {
			continue
		}
		level, _ := e.Level()
		k := key{t.Day(), int(t.Month()), t.Year(), level}
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, model.GroupedCount{Day: k.day, Month: k.month, Year: k.year, Level: k.level})
		}
		out[i].Count++
	}
	return out, nil
}

// CountInRange implements model.Backend.
func (s *Store) CountInRange(ctx context.Context, w model.TimeWindow, r model.LatencyRange) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.begin(); err != nil {
		return 0, err
	}

	var n int64
	for _, e := range s.entries {
		if !inWindow(e, w) {
			continue
		}
		if ms, ok := e.Latency(); ok && r.Matches(ms) {
			n++
		}
	}
	return n, nil
}

// TopByLatency implements model.LatencyFeed.
func (s *Store) TopByLatency(ctx context.Context, n int) ([]model.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.begin(); err != nil {
		return nil, err
	}

	sorted := append([]model.LogEntry(nil), s.entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i].Latency()
		b, _ := sorted[j].Latency()
		return a > b
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted, nil
}

// WatchTopByLatency implements model.LatencyFeed. Changes are delivered by
// Publish and the stream ends on CloseFeed.
func (s *Store) WatchTopByLatency(ctx context.Context, n int) (model.ChangeStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(); err != nil {
		return nil, err
	}
	st := &stream{changes: make(chan model.Change, 64), done: make(chan struct{})}
	s.watchers = append(s.watchers, st)
	return st, nil
}

// Publish delivers a change to every open watcher.
func (s *Store) Publish(c model.Change) {
	s.mu.RLock()
	watchers := append([]*stream(nil), s.watchers...)
	s.mu.RUnlock()
	for _, st := range watchers {
		select {
		case st.changes <- c:
		case <-st.done:
		}
	}
}

// CloseFeed ends every open watcher, reporting err from Err.
func (s *Store) CloseFeed(err error) {
	s.mu.Lock()
	watchers := s.watchers
	s.watchers = nil
	s.mu.Unlock()
	for _, st := range watchers {
		st.finish(err)
	}
}

type stream struct {
	changes chan model.Change
	done    chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

func (st *stream) Next(ctx context.Context) (model.Change, bool) {
	// Drain pending changes before honouring a close.
	select {
	case c := <-st.changes:
		return c, true
	default:
	}
	select {
	case c := <-st.changes:
		return c, true
	case <-st.done:
		return model.Change{}, false
	case <-ctx.Done():
		st.finish(ctx.Err())
		return model.Change{}, false
	}
}

func (st *stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

func (st *stream) Close() error {
	st.finish(nil)
	return nil
}

func (st *stream) finish(err error) {
	st.once.Do(func() {
		st.mu.Lock()
		st.err = err
		st.mu.Unlock()
		close(st.done)
	})
}
