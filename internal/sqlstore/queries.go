package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/reshape"
)

var (
	colTime    = quoteIdent(model.FieldTime)
	colLevel   = quoteIdent(model.FieldLevel)
	colLatency = quoteIdent(model.FieldLatency)
)

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.QueryTimeout)
}

// where accumulates predicates with numbered placeholders.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) window(tw model.TimeWindow) {
	if tw.Unbounded() {
		return
	}
	w.add(colTime+" >= %s", tw.Min)
	w.add(colTime+" < %s", tw.Max)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// next returns the placeholder for an argument appended after the predicates.
func (w *where) next(arg interface{}) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (s *Store) unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %s: %w", model.ErrBackendUnavailable, s.driver, op, err)
}

func (s *Store) malformed(op string, err error) error {
	return fmt.Errorf("%w: %s: %s: %w", model.ErrMalformedRecord, s.driver, op, err)
}

// RawQuery returns entries with time in [Min, Max), ordered by time.
func (s *Store) RawQuery(ctx context.Context, w model.TimeWindow, limit int) ([]model.LogEntry, error) {
	var wh where
	wh.window(w)
	return s.selectEntries(ctx, "raw query", &wh, limit)
}

// FilteredQuery is RawQuery restricted to one level code. The level predicate
// is applied before the limit.
func (s *Store) FilteredQuery(ctx context.Context, w model.TimeWindow, level int, limit int) ([]model.LogEntry, error) {
	var wh where
	wh.window(w)
	wh.add(colLevel+" = %s", level)
	return s.selectEntries(ctx, "filtered query", &wh, limit)
}

func (s *Store) selectEntries(ctx context.Context, op string, wh *where, limit int) ([]model.LogEntry, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	filter := wh.String()
	query := fmt.Sprintf(`SELECT * FROM %s%s ORDER BY %s LIMIT %s`,
		s.table, filter, colTime, wh.next(model.ClampLimit(limit)))

	rows, err := s.db.QueryContext(ctx, query, wh.args...)
	if err != nil {
		return nil, s.unavailable(op, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, s.unavailable(op, err)
	}

	entries := make([]model.LogEntry, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.malformed(op, err)
		}
		entries = append(entries, reshape.Row(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, s.unavailable(op, err)
	}
	return entries, nil
}

// GroupedCountByDayAndLevel counts entries per (day, month, year, level),
// ordered by date then level.
func (s *Store) GroupedCountByDayAndLevel(ctx context.Context, w model.TimeWindow) ([]model.GroupedCount, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var wh where
	wh.window(w)

	day := fmt.Sprintf("EXTRACT(DAY FROM %s)", colTime)
	month := fmt.Sprintf("EXTRACT(MONTH FROM %s)", colTime)
	year := fmt.Sprintf("EXTRACT(YEAR FROM %s)", colTime)
	query := fmt.Sprintf(`
		SELECT %[1]s, %[2]s, %[3]s, %[4]s, COUNT(*)
		FROM %[5]s%[6]s
		GROUP BY %[1]s, %[2]s, %[3]s, %[4]s
		ORDER BY 3, 2, 1, 4`,
		day, month, year, colLevel, s.table, wh.String())

	rows, err := s.db.QueryContext(ctx, query, wh.args...)
	if err != nil {
		return nil, s.unavailable("grouped count", err)
	}
	defer rows.Close()

	var results []model.GroupedCount
	for rows.Next() {
		var d, m, y, count int64
		var level sql.NullInt64
		if err := rows.Scan(&d, &m, &y, &level, &count); err != nil {
			return nil, s.malformed("grouped count", err)
		}
		if !level.Valid {
			return nil, fmt.Errorf("%w: null level on %d/%d/%d (%d rows)",
				model.ErrUnknownSeverity, d, m, y, count)
		}
		results = append(results, model.GroupedCount{
			Day:   int(d),
			Month: int(m),
			Year:  int(y),
			Level: int(level.Int64),
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, s.unavailable("grouped count", err)
	}
	return results, nil
}

// CountInRange counts entries in w whose ms, cast to a number, falls in rng.
func (s *Store) CountInRange(ctx context.Context, w model.TimeWindow, rng model.LatencyRange) (int64, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	ms := fmt.Sprintf("CAST(%s AS DOUBLE)", colLatency)
	var wh where
	wh.window(w)
	wh.add(ms+" >= %s", rng.Lo)
	if !rng.Open {
		wh.add(ms+" < %s", rng.Hi)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, s.table, wh.String())

	var n int64
	if err := s.db.QueryRowContext(ctx, query, wh.args...).Scan(&n); err != nil {
		return 0, s.unavailable("range count", err)
	}
	return n, nil
}
