package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// SantiagoTZ is the zone posts operate in. Falls back to a fixed UTC-4
// offset when the tz database is unavailable.
var SantiagoTZ = loadZone("America/Santiago", -4*60*60)

func loadZone(name string, offset int) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone(name, offset)
}

func SantiagoNow() time.Time {
	return time.Now().In(SantiagoTZ)
}

// Today returns the calendar date of t in SantiagoTZ as YYYY-MM-DD.
func Today(t time.Time) string {
	return t.In(SantiagoTZ).Format(DateLayout)
}

func MustParseDate(dateStr string) time.Time {
	t, _ := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	return t
}

func ParseISOTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		DateLayout,
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, SantiagoTZ); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}
