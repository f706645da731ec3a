package timestamp

import (
	"fmt"

	"github.com/tinytelemetry/logway/internal/model"
)

// ParseWindow parses a required [min, max) window. Both bounds must be present.
// The bounds are not ordered against each other: an inverted window is valid
// and matches nothing.
func ParseWindow(min, max string) (model.TimeWindow, error) {
	if min == "" || max == "" {
		return model.TimeWindow{}, fmt.Errorf("%w: min and max are required", model.ErrMissingParameter)
	}
	return parseBounds(min, max)
}

// ParseOptionalWindow parses a window that may be omitted. Bounds only take
// effect when both are given; otherwise the unbounded window is returned.
func ParseOptionalWindow(min, max string) (model.TimeWindow, error) {
	if min == "" || max == "" {
		return model.TimeWindow{}, nil
	}
	return parseBounds(min, max)
}

func parseBounds(min, max string) (model.TimeWindow, error) {
	lo, err := ParseISO8601(min)
	if err != nil {
		return model.TimeWindow{}, fmt.Errorf("%w: min: %v", model.ErrInvalidDateFormat, err)
	}
	hi, err := ParseISO8601(max)
	if err != nil {
		return model.TimeWindow{}, fmt.Errorf("%w: max: %v", model.ErrInvalidDateFormat, err)
	}
	return model.NewTimeWindow(lo, hi), nil
}
