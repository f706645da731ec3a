package reshape

import (
	"bytes"
	"strconv"

	"github.com/tinytelemetry/logway/internal/model"
	"github.com/tinytelemetry/logway/internal/severity"
)

// LevelCount is one {level, count} element of a daily breakdown.
type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

// DailyLevels maps "D/M/Y" day keys to per-level counts. Days and the levels
// within a day keep the order in which the backend reported them.
type DailyLevels struct {
	days   []string
	counts map[string][]LevelCount
}

// Days returns the day keys in first-seen order.
func (d *DailyLevels) Days() []string {
	return append([]string(nil), d.days...)
}

// Day returns the level counts recorded for the given "D/M/Y" key.
func (d *DailyLevels) Day(key string) []LevelCount {
	return d.counts[key]
}

// Total sums every count across all days.
func (d *DailyLevels) Total() int64 {
	var total int64
	for _, levels := range d.counts {
		for _, lc := range levels {
			total += lc.Count
		}
	}
	return total
}

// MarshalJSON encodes the days as a JSON object in first-seen order.
func (d *DailyLevels) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range d.days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := Encode(day)
		if err != nil {
			return nil, err
		}
		val, err := Encode(d.counts[day])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DayKey formats a date as the unpadded "D/M/Y" key.
func DayKey(day, month, year int) string {
	return strconv.Itoa(day) + "/" + strconv.Itoa(month) + "/" + strconv.Itoa(year)
}

// LevelStats reshapes grouped (day, month, year, level) counts into daily
// level breakdowns. A level code outside the known severities fails the whole
// reshape instead of being dropped.
func LevelStats(groups []model.GroupedCount) (*DailyLevels, error) {
	out := &DailyLevels{counts: make(map[string][]LevelCount)}
	for _, g := range groups {
		name, err := severity.NameOf(g.Level)
		if err != nil {
			return nil, err
		}
		key := DayKey(g.Day, g.Month, g.Year)
		if _, seen := out.counts[key]; !seen {
			out.days = append(out.days, key)
		}
		out.counts[key] = append(out.counts[key], LevelCount{Level: name, Count: g.Count})
	}
	return out, nil
}
