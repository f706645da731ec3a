package reshape

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tinytelemetry/logway/internal/model"
)

func TestRow(t *testing.T) {
	ts := time.Date(2020, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	entry := Row(
		[]string{"id", "time", "level", "ms", "payload"},
		[]any{"a1", ts, int32(30), []byte("12.5"), nil},
	)

	want := model.LogEntry{
		"id":      "a1",
		"time":    ts.UTC(),
		"level":   int32(30),
		"ms":      "12.5",
		"payload": nil,
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Errorf("Row mismatch (-want +got):\n%s", diff)
	}
	if ms, ok := entry.Latency(); !ok || ms != 12.5 {
		t.Errorf("Latency() = %v, %v; want 12.5", ms, ok)
	}
}

func TestDocument_CopiesInput(t *testing.T) {
	doc := map[string]any{"id": "x", "extra": map[string]any{"k": "v"}}
	entry := Document(doc)
	doc["id"] = "changed"
	if entry.ID() != "x" {
		t.Errorf("entry ID = %q, want x", entry.ID())
	}
	if _, ok := entry["extra"]; !ok {
		t.Error("opaque field dropped")
	}
}

func TestEntries_EmptyEncodesAsArray(t *testing.T) {
	data, _ := json.Marshal(Entries(nil))
	if string(data) != "[]" {
		t.Errorf("json = %s, want []", data)
	}
}
