package timestamp

import (
	"testing"
	"time"
)

func TestParseISO8601_Accepted(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"date", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"year month", "2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"ordinal", "2024-046", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"basic date", "20240115", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"RFC3339", "2024-01-15T10:30:45Z", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
		{"RFC3339Nano", "2024-01-15T10:30:45.123456789Z", time.Date(2024, 1, 15, 10, 30, 45, 123456789, time.UTC)},
		{"millis no zone", "2024-01-15T10:30:45.123", time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)},
		{"comma decimal", "2024-01-15T10:30:45,5Z", time.Date(2024, 1, 15, 10, 30, 45, 500000000, time.UTC)},
		{"space separated", "2024-01-15 10:30:45", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
		{"minutes only", "2024-01-15T10:30", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"hour only", "2024-01-15T10", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"offset colon", "2024-01-15T10:30:45+05:00", time.Date(2024, 1, 15, 5, 30, 45, 0, time.UTC)},
		{"offset basic", "2024-01-15T10:30:45-0200", time.Date(2024, 1, 15, 12, 30, 45, 0, time.UTC)},
		{"offset hours", "2024-01-15T10:30+01", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"basic date time", "20240115T103045Z", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
		{"surrounding space", "  2024-01-15T10:30:45Z ", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseISO8601(tt.input)
			if err != nil {
				t.Fatalf("ParseISO8601(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseISO8601(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseISO8601(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestParseISO8601_Rejected(t *testing.T) {
	for _, input := range []string{
		"",
		"yesterday",
		"2024-13-01",
		"2024-02-30",
		"2024-01-15T25:00:00Z",
		"15/01/2024",
		"Jan 15 10:30:45",
		"1705312245",
		"2024-01-15T10:30:45Zjunk",
	} {
		t.Run(input, func(t *testing.T) {
			if got, err := ParseISO8601(input); err == nil {
				t.Errorf("ParseISO8601(%q) = %v, want error", input, got)
			}
		})
	}
}
