package rethink

import (
	"fmt"

	"github.com/tinytelemetry/logway/internal/model"
)

// decodeGroup reads one {"group": [day, month, year, level], "reduction": n}
// element of a grouped count.
func decodeGroup(row map[string]interface{}) (model.GroupedCount, error) {
	keys, ok := row["group"].([]interface{})
	if !ok || len(keys) != 4 {
		return model.GroupedCount{}, fmt.Errorf("%w: unexpected group key %v", model.ErrMalformedRecord, row["group"])
	}

	var parts [4]int
	for i, k := range keys[:3] {
		n, ok := model.AsInt(k)
		if !ok {
			return model.GroupedCount{}, fmt.Errorf("%w: non-numeric date key %v", model.ErrMalformedRecord, k)
		}
		parts[i] = n
	}
	level, ok := model.AsInt(keys[3])
	if !ok {
		return model.GroupedCount{}, fmt.Errorf("%w: level %v on %d/%d/%d", model.ErrUnknownSeverity, keys[3], parts[0], parts[1], parts[2])
	}
	parts[3] = level
	count, ok := model.AsInt(row["reduction"])
	if !ok {
		return model.GroupedCount{}, fmt.Errorf("%w: non-numeric reduction %v", model.ErrMalformedRecord, row["reduction"])
	}

	return model.GroupedCount{
		Day:   parts[0],
		Month: parts[1],
		Year:  parts[2],
		Level: parts[3],
		Count: int64(count),
	}, nil
}

// decodeChange converts a changefeed document into a model.Change.
func decodeChange(doc map[string]interface{}) model.Change {
	var c model.Change
	if old, ok := doc["old_val"].(map[string]interface{}); ok {
		c.Old = model.LogEntry(old)
	}
	if nv, ok := doc["new_val"].(map[string]interface{}); ok {
		c.New = model.LogEntry(nv)
	}
	return c
}
