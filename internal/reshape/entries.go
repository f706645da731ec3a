package reshape

import (
	"time"

	"github.com/tinytelemetry/logway/internal/model"
)

// Document converts a decoded document-store row into a LogEntry. The
// document is copied so callers may reuse their decode buffers.
func Document(doc map[string]any) model.LogEntry {
	entry := make(model.LogEntry, len(doc))
	for k, v := range doc {
		entry[k] = normalizeValue(v)
	}
	return entry
}

// Row converts one SQL result row, given its column names, into a LogEntry.
func Row(columns []string, values []any) model.LogEntry {
	entry := make(model.LogEntry, len(columns))
	for i, col := range columns {
		if i >= len(values) {
			break
		}
		entry[col] = normalizeValue(values[i])
	}
	return entry
}

// normalizeValue strips driver-specific representations that do not encode
// well as JSON: raw bytes become text and times are reported in UTC.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	default:
		return v
	}
}

// Entries guarantees a non-nil slice so empty results encode as [] rather than null.
func Entries(entries []model.LogEntry) []model.LogEntry {
	if entries == nil {
		return []model.LogEntry{}
	}
	return entries
}
