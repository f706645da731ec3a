package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Well-known LogEntry fields.
const (
	FieldID      = "id"
	FieldTime    = "time"
	FieldLevel   = "level"
	FieldLatency = "ms"
)

// LogEntry is a read-only projection of one backend row. Every column or document
// field is kept as returned by the store; the accessors interpret the well-known ones.
type LogEntry map[string]any

// ID returns the opaque identifier in string form, or "" when absent.
func (e LogEntry) ID() string {
	v, ok := e[FieldID]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Time returns the entry timestamp in UTC.
func (e LogEntry) Time() (time.Time, bool) {
	switch v := e[FieldTime].(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Level returns the numeric severity code.
func (e LogEntry) Level() (int, bool) {
	return AsInt(e[FieldLevel])
}

// Latency returns the ms field coerced to a number. Stores may keep it as text.
func (e LogEntry) Latency() (float64, bool) {
	return toFloat(e[FieldLatency])
}

// AsInt coerces a decoded numeric value to int. Fractional values are rejected.
func AsInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	}
	return 0, false
}

// TimeWindow is an inclusive-lower, exclusive-upper UTC range.
// The zero value is the unbounded window.
type TimeWindow struct {
	Min time.Time
	Max time.Time
}

// NewTimeWindow normalises both bounds to UTC. No ordering check is made:
// an inverted window simply matches nothing.
func NewTimeWindow(from, to time.Time) TimeWindow {
	return TimeWindow{Min: from.UTC(), Max: to.UTC()}
}

// Unbounded reports whether the window places no constraint on time.
func (w TimeWindow) Unbounded() bool {
	return w.Min.IsZero() && w.Max.IsZero()
}

// Contains reports whether t falls in [Min, Max). The unbounded window contains everything.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.Unbounded() {
		return true
	}
	return !t.Before(w.Min) && t.Before(w.Max)
}

func (w TimeWindow) String() string {
	if w.Unbounded() {
		return "[unbounded]"
	}
	return "[" + w.Min.Format(time.RFC3339Nano) + ", " + w.Max.Format(time.RFC3339Nano) + ")"
}

// GroupedCount is one row of the day/level aggregation.
type GroupedCount struct {
	Day   int
	Month int
	Year  int
	Level int
	Count int64
}

// LatencyRange is a half-open [Lo, Hi) predicate on ms. When Open is set the
// range has no upper bound and Hi is ignored.
type LatencyRange struct {
	Lo   float64
	Hi   float64
	Open bool
}

// Matches reports whether ms falls inside the range.
func (r LatencyRange) Matches(ms float64) bool {
	if ms < r.Lo {
		return false
	}
	return r.Open || ms < r.Hi
}

// Change is one event of the top-latency change feed. Old is nil for insertions
// into the view and New is nil for removals.
type Change struct {
	Old LogEntry
	New LogEntry
}
