package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tinytelemetry/logway/internal/memstore"
	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/reshape"
)

func at(day, hour int) time.Time {
	return time.Date(2020, 2, day, hour, 0, 0, 0, time.UTC)
}

func logEntry(id string, ts time.Time, level int, ms any) model.LogEntry {
	return model.LogEntry{"id": id, "time": ts, "level": level, "ms": ms}
}

func fixture() (*memstore.Store, *memstore.Store) {
	rethink := memstore.New("rethinkdb",
		logEntry("r1", at(1, 1), 30, 5),
		logEntry("r2", at(1, 2), 50, 15),
		logEntry("r3", at(2, 3), 30, 95),
		logEntry("r4", at(2, 4), 40, "150"),
	)
	crate := memstore.New("cratedb",
		logEntry("c1", at(1, 1), 30, 1),
	)
	return rethink, crate
}

type fixedWorst []model.LogEntry

func (f fixedWorst) Current() []model.LogEntry { return f }

func ids(entries []model.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID()
	}
	return out
}

func TestEntries(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	tests := []struct {
		name    string
		backend string
		min     string
		max     string
		want    []string
	}{
		{"rethinkdb window", BackendRethinkDB, "2020-02-01", "2020-02-02", []string{"r1", "r2"}},
		{"rethinkdb exclusive max", BackendRethinkDB, "2020-02-01T00:00:00Z", "2020-02-01T02:00:00Z", []string{"r1"}},
		{"cratedb window", BackendCrateDB, "2020-02-01", "2020-02-03", []string{"c1"}},
		{"inverted window is empty", BackendRethinkDB, "2020-02-03", "2020-02-01", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Entries(context.Background(), tt.backend, tt.min, tt.max)
			if err != nil {
				t.Fatalf("Entries: %v", err)
			}
			if got == nil {
				t.Fatal("Entries returned nil slice")
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEntries_ValidationSkipsBackend(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	tests := []struct {
		name    string
		min     string
		max     string
		wantErr error
		wantMsg string
	}{
		{"missing both", "", "", model.ErrMissingParameter, MsgMissingWindow},
		{"missing max", "2020-02-01", "", model.ErrMissingParameter, MsgMissingWindow},
		{"bad min", "yesterday", "2020-02-01", model.ErrInvalidDateFormat, MsgInvalidDate},
		{"bad max", "2020-02-01", "2020-13-45", model.ErrInvalidDateFormat, MsgInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Entries(context.Background(), BackendRethinkDB, tt.min, tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !IsBadRequest(err) {
				t.Errorf("IsBadRequest(%v) = false", err)
			}
			if got := Message(err); got != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
	if rethink.Calls() != 0 {
		t.Fatalf("backend called %d times on invalid requests", rethink.Calls())
	}
}

func TestEntries_UnknownBackend(t *testing.T) {
	svc := NewService(nil, nil, nil)
	_, err := svc.Entries(context.Background(), "mongodb", "2020-02-01", "2020-02-02")
	if !errors.Is(err, ErrUnknownBackend) || !IsBadRequest(err) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestEntries_UnconfiguredBackend(t *testing.T) {
	svc := NewService(nil, nil, nil)
	_, err := svc.Entries(context.Background(), BackendCrateDB, "2020-02-01", "2020-02-02")
	if !errors.Is(err, model.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestEntries_UnconfiguredBackendValidatesWindowFirst(t *testing.T) {
	svc := NewService(nil, nil, nil)

	tests := []struct {
		name string
		min  string
		max  string
		want error
	}{
		{"no window", "", "", model.ErrMissingParameter},
		{"bad date", "yesterday", "2020-02-02", model.ErrInvalidDateFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Entries(context.Background(), BackendCrateDB, tt.min, tt.max)
			if !errors.Is(err, tt.want) || !IsBadRequest(err) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEntries_UnknownBackendBeforeWindow(t *testing.T) {
	svc := NewService(nil, nil, nil)
	_, err := svc.Entries(context.Background(), "mongodb", "", "")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestEntriesByLevel(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	got, err := svc.EntriesByLevel(context.Background(), "", "", "info")
	if err != nil {
		t.Fatalf("EntriesByLevel: %v", err)
	}
	if diff := cmp.Diff([]string{"r1", "r3"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	got, err = svc.EntriesByLevel(context.Background(), "2020-02-02", "2020-02-03", "info")
	if err != nil {
		t.Fatalf("EntriesByLevel windowed: %v", err)
	}
	if diff := cmp.Diff([]string{"r3"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestEntriesByLevel_SingleBoundIsUnbounded(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	got, err := svc.EntriesByLevel(context.Background(), "2020-02-02", "", "error")
	if err != nil {
		t.Fatalf("EntriesByLevel: %v", err)
	}
	if diff := cmp.Diff([]string{"r2"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestEntriesByLevel_LogTypeCheckedFirst(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	for _, logtype := range []string{"", "verbose", "INFO", "30"} {
		_, err := svc.EntriesByLevel(context.Background(), "garbage", "", logtype)
		if !errors.Is(err, model.ErrInvalidLogLevel) {
			t.Errorf("logtype %q: err = %v, want ErrInvalidLogLevel", logtype, err)
		}
		if Message(err) != MsgInvalidLevel {
			t.Errorf("logtype %q: Message = %q", logtype, Message(err))
		}
	}
	if rethink.Calls() != 0 {
		t.Fatalf("backend called %d times", rethink.Calls())
	}
}

func TestLevelStats(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	stats, err := svc.LevelStats(context.Background(), "", "")
	if err != nil {
		t.Fatalf("LevelStats: %v", err)
	}
	if stats.Total() != 4 {
		t.Errorf("Total = %d, want 4", stats.Total())
	}
	data, err := reshape.Encode(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"1/2/2020":[{"level":"info","count":1},{"level":"error","count":1}],"2/2/2020":[{"level":"info","count":1},{"level":"warn","count":1}]}`
	if string(data) != want {
		t.Fatalf("json = %s\nwant   %s", data, want)
	}
}

func TestLevelStats_UnknownSeverity(t *testing.T) {
	rethink := memstore.New("rethinkdb", logEntry("x", at(1, 1), 35, 1))
	svc := NewService(rethink, nil, nil)

	_, err := svc.LevelStats(context.Background(), "", "")
	if !errors.Is(err, model.ErrUnknownSeverity) {
		t.Fatalf("err = %v, want ErrUnknownSeverity", err)
	}
	if IsBadRequest(err) {
		t.Fatal("unknown severity must not be a client error")
	}
}

func TestTimeStats(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	h, err := svc.TimeStats(context.Background(), "2020-02-01", "2020-02-03")
	if err != nil {
		t.Fatalf("TimeStats: %v", err)
	}
	data, err := reshape.Encode(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"0 - 10":1,"10 - 20":1,"20 - 30":0,"30 - 40":0,"40 - 50":0,"50 - 60":0,"60 - 70":0,"70 - 80":0,"80 - 90":0,"90 - 100":1," > 100":1}`
	if string(data) != want {
		t.Fatalf("json = %s\nwant   %s", data, want)
	}
}

func TestTimeStats_RequiresWindow(t *testing.T) {
	rethink, crate := fixture()
	svc := NewService(rethink, crate, nil)

	_, err := svc.TimeStats(context.Background(), "2020-02-01", "")
	if !errors.Is(err, model.ErrMissingParameter) {
		t.Fatalf("err = %v, want ErrMissingParameter", err)
	}
	if rethink.Calls() != 0 {
		t.Fatalf("backend called %d times", rethink.Calls())
	}
}

func TestBackendFailure(t *testing.T) {
	rethink, crate := fixture()
	rethink.Fail(errors.New("connection refused"))
	svc := NewService(rethink, crate, nil)

	_, err := svc.TimeStats(context.Background(), "2020-02-01", "2020-02-03")
	if !errors.Is(err, model.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if Message(err) != MsgUnavailable {
		t.Errorf("Message = %q", Message(err))
	}
}

func TestWorstCalls(t *testing.T) {
	svc := NewService(nil, nil, nil)
	if got := svc.WorstCalls(); got == nil || len(got) != 0 {
		t.Fatalf("WorstCalls without tracker = %v", got)
	}

	worst := fixedWorst{logEntry("slow", at(1, 1), 30, 900)}
	svc = NewService(nil, nil, worst)
	if diff := cmp.Diff([]string{"slow"}, ids(svc.WorstCalls())); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}
