package rethink

import (
	"context"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/reshape"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// windowed restricts the table to w through the time index. The unbounded
// window scans the whole table.
func (s *Store) windowed(w model.TimeWindow) r.Term {
	t := r.Table(s.table)
	if w.Unbounded() {
		return t
	}
	return t.Between(w.Min, w.Max, r.BetweenOpts{Index: s.timeIndex})
}

// RawQuery returns entries with time in [Min, Max) in time-index order.
func (s *Store) RawQuery(ctx context.Context, w model.TimeWindow, limit int) ([]model.LogEntry, error) {
	term := s.windowed(w).Limit(model.ClampLimit(limit))
	return s.fetchEntries(ctx, "raw query", term)
}

// FilteredQuery is RawQuery restricted to a single level code.
func (s *Store) FilteredQuery(ctx context.Context, w model.TimeWindow, level int, limit int) ([]model.LogEntry, error) {
	term := s.windowed(w).
		Filter(map[string]interface{}{model.FieldLevel: level}).
		Limit(model.ClampLimit(limit))
	return s.fetchEntries(ctx, "filtered query", term)
}

func (s *Store) fetchEntries(ctx context.Context, op string, term r.Term) ([]model.LogEntry, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	cursor, err := term.Run(s.session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer cursor.Close()

	var docs []map[string]interface{}
	if err := cursor.All(&docs); err != nil {
		return nil, unavailable(op, err)
	}

	entries := make([]model.LogEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, reshape.Document(doc))
	}
	return entries, nil
}

// GroupedCountByDayAndLevel counts entries per (day, month, year, level).
func (s *Store) GroupedCountByDayAndLevel(ctx context.Context, w model.TimeWindow) ([]model.GroupedCount, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	timeField := r.Row.Field(model.FieldTime)
	term := s.windowed(w).
		Group(timeField.Day(), timeField.Month(), timeField.Year(), model.FieldLevel).
		Count()

	cursor, err := term.Run(s.session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, unavailable("grouped count", err)
	}
	defer cursor.Close()

	var rows []map[string]interface{}
	if err := cursor.All(&rows); err != nil {
		return nil, unavailable("grouped count", err)
	}

	out := make([]model.GroupedCount, 0, len(rows))
	for _, row := range rows {
		gc, err := decodeGroup(row)
		if err != nil {
			return nil, err
		}
		out = append(out, gc)
	}
	return out, nil
}

// CountInRange counts entries in w whose ms, coerced to a number, falls in rng.
func (s *Store) CountInRange(ctx context.Context, w model.TimeWindow, rng model.LatencyRange) (int64, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	term := s.windowed(w).Filter(latencyPredicate(rng)).Count()

	cursor, err := term.Run(s.session, r.RunOpts{Context: ctx})
	if err != nil {
		return 0, unavailable("range count", err)
	}
	defer cursor.Close()

	var n int64
	if err := cursor.One(&n); err != nil {
		return 0, unavailable("range count", err)
	}
	return n, nil
}

// latencyPredicate builds the ReQL filter for rng. Stored ms values may be
// strings, so the field is coerced before comparison.
func latencyPredicate(rng model.LatencyRange) func(r.Term) r.Term {
	return func(row r.Term) r.Term {
		ms := row.Field(model.FieldLatency).CoerceTo("NUMBER")
		if rng.Open {
			return ms.Ge(rng.Lo)
		}
		return ms.Ge(rng.Lo).And(ms.Lt(rng.Hi))
	}
}
