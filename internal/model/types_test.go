package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLogEntryAccessors(t *testing.T) {
	ts := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	e := LogEntry{"id": 42, "time": ts, "level": float64(40), "ms": "17.25"}

	if e.ID() != "42" {
		t.Errorf("ID() = %q, want 42", e.ID())
	}
	if got, ok := e.Time(); !ok || !got.Equal(ts) {
		t.Errorf("Time() = %v, %v", got, ok)
	}
	if got, ok := e.Level(); !ok || got != 40 {
		t.Errorf("Level() = %v, %v", got, ok)
	}
	if got, ok := e.Latency(); !ok || got != 17.25 {
		t.Errorf("Latency() = %v, %v", got, ok)
	}
}

func TestLogEntryLatencyCoercion(t *testing.T) {
	tests := []struct {
		name string
		ms   any
		want float64
		ok   bool
	}{
		{"int", 5, 5, true},
		{"int64", int64(7), 7, true},
		{"float32", float32(1.5), 1.5, true},
		{"string", " 12 ", 12, true},
		{"json number", json.Number("3.5"), 3.5, true},
		{"bytes", []byte("8"), 8, true},
		{"text", "slow", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LogEntry{"ms": tt.ms}.Latency()
			if ok != tt.ok || got != tt.want {
				t.Errorf("Latency() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLogEntryTimeFromString(t *testing.T) {
	e := LogEntry{"time": "2020-01-01T10:00:00+02:00"}
	got, ok := e.Time()
	if !ok || !got.Equal(time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Time() = %v, %v", got, ok)
	}
}

func TestTimeWindowContains(t *testing.T) {
	lo := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewTimeWindow(lo, lo.Add(time.Hour))

	if !w.Contains(lo) {
		t.Error("lower bound should be inclusive")
	}
	if w.Contains(lo.Add(time.Hour)) {
		t.Error("upper bound should be exclusive")
	}
	if !(TimeWindow{}).Contains(lo) {
		t.Error("unbounded window should contain everything")
	}
}

func TestLatencyRangeMatches(t *testing.T) {
	r := LatencyRange{Lo: 10, Hi: 20}
	if !r.Matches(10) || r.Matches(20) || r.Matches(9.99) {
		t.Error("closed range bounds wrong")
	}
	open := LatencyRange{Lo: 100, Open: true}
	if !open.Matches(100) || !open.Matches(1e9) || open.Matches(99) {
		t.Error("open range bounds wrong")
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: MaxRows, -1: MaxRows, 10: 10, MaxRows + 1: MaxRows} {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
