package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Calendar date forms: extended, year-month, ordinal and basic.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006-002",
	"20060102",
}

// Time-of-day forms. Fractional seconds are accepted after any seconds field.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"150405",
	"1504",
	"15",
}

// Zone designators; "" means no offset and is read as UTC.
var zoneLayouts = []string{
	"",
	"Z07:00",
	"Z0700",
	"Z07",
}

var isoLayouts = buildLayouts()

func buildLayouts() []string {
	layouts := append([]string(nil), dateLayouts...)
	for _, d := range dateLayouts {
		for _, c := range clockLayouts {
			for _, z := range zoneLayouts {
				layouts = append(layouts, d+"T"+c+z)
			}
		}
	}
	return layouts
}

var errNotISO8601 = errors.New("not an ISO 8601 date")

// ParseISO8601 parses an ISO 8601 date or date-time and returns it in UTC.
// Values without an offset are interpreted as UTC. A single space may stand in
// for the T separator and a comma for the decimal point.
func ParseISO8601(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return time.Time{}, errNotISO8601
	}
	value = strings.Replace(value, " ", "T", 1)
	value = strings.Replace(value, ",", ".", 1)

	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errNotISO8601, s)
}
