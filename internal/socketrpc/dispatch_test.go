package socketrpc

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tinytelemetry/logway/internal/memstore"
	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/query"
)

func newTestDispatcher(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()
	ts := time.Date(2020, 2, 1, 12, 0, 0, 0, time.UTC)
	rethink := memstore.New("rethinkdb",
		model.LogEntry{"id": "r1", "time": ts, "level": 30, "ms": 5},
		model.LogEntry{"id": "r2", "time": ts, "level": 50, "ms": 250},
	)
	srv := NewServer("", query.NewService(rethink, memstore.New("cratedb"), nil))
	t.Cleanup(srv.cancel)
	return srv, rethink
}

func call(t *testing.T, srv *Server, method string, params string) Response {
	t.Helper()
	req := Request{JSONRPC: "2.0", ID: 1, Method: method}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return srv.dispatch(req)
}

func TestDispatch_Entries(t *testing.T) {
	srv, _ := newTestDispatcher(t)

	resp := call(t, srv, "Entries", `{"Backend":"rethinkdb","Min":"2020-02-01","Max":"2020-02-02"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var entries []map[string]interface{}
	if err := json.Unmarshal(resp.Result, &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
}

func TestDispatch_ErrorCodes(t *testing.T) {
	srv, rethink := newTestDispatcher(t)

	tests := []struct {
		name     string
		method   string
		params   string
		wantCode int
		wantMsg  string
	}{
		{"missing window", "Entries", `{"Backend":"rethinkdb"}`, CodeInvalidParams, query.MsgMissingWindow},
		{"bad date", "TimeStats", `{"Min":"x","Max":"y"}`, CodeInvalidParams, query.MsgInvalidDate},
		{"bad logtype", "EntriesByLevel", `{"LogType":"loud"}`, CodeInvalidParams, query.MsgInvalidLevel},
		{"unknown backend", "Entries", `{"Backend":"mongo","Min":"2020-02-01","Max":"2020-02-02"}`, CodeInvalidParams, ""},
		{"malformed params", "TimeStats", `[1,2]`, CodeInvalidParams, ""},
		{"unknown method", "DropTable", "", CodeMethodNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, tt.method, tt.params)
			if resp.Error == nil {
				t.Fatalf("expected error, got result %s", resp.Result)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", resp.Error.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && resp.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.wantMsg)
			}
		})
	}
	if rethink.Calls() != 0 {
		t.Fatalf("backend called %d times", rethink.Calls())
	}
}

func TestDispatch_BackendFailure(t *testing.T) {
	srv, rethink := newTestDispatcher(t)
	rethink.Fail(errors.New("timeout"))

	resp := call(t, srv, "LevelStats", "")
	if resp.Error == nil || resp.Error.Code != CodeApplication {
		t.Fatalf("error = %v, want code %d", resp.Error, CodeApplication)
	}
	if resp.Error.Message != query.MsgUnavailable {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestDispatch_LevelStatsWithoutParams(t *testing.T) {
	srv, _ := newTestDispatcher(t)

	resp := call(t, srv, "LevelStats", "")
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	want := `{"1/2/2020":[{"level":"info","count":1},{"level":"error","count":1}]}`
	if string(resp.Result) != want {
		t.Fatalf("result = %s, want %s", resp.Result, want)
	}
}

func TestDispatch_WorstCallsWithoutTracker(t *testing.T) {
	srv, _ := newTestDispatcher(t)

	resp := call(t, srv, "WorstCalls", "")
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if string(resp.Result) != "[]" {
		t.Fatalf("result = %s, want []", resp.Result)
	}
}
