package model

// Hard limits shared by every backend and read surface.
const (
	MaxRows            = 50000
	WorstCallsCapacity = 50
)

// ClampLimit bounds a requested row limit to (0, MaxRows].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxRows {
		return MaxRows
	}
	return limit
}
