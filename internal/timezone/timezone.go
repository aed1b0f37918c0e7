package timezone

import (
	"strings"
	"time"
)

// Offset-bearing layouts keep the wall clock the source reported.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700", // Without colon
	"2006-01-02T15:04-07:00",
}

// Local layouts carry no offset; Amadeus reports segment times this way,
// already in the airport's local time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimeWithOffset parses a source timestamp without shifting its wall
// clock. Times without an offset are placed in tzName, or UTC when tzName
// is empty or unknown.
func ParseTimeWithOffset(timeStr string, tzName string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return t, nil
		}
	}

	loc := GetLocationByName(tzName)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, timeStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

func GetLocationByName(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.UTC
}
