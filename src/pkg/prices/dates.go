package prices

import (
	"time"
)

// DateLayout is the calendar date format used by the trigger API and the filters.
const DateLayout = "2006-01-02"

// LocalOffset is the fixed offset the upstream data is published in.
const LocalOffset = -3 * time.Hour

// LocalZone is the fixed UTC-3 zone used to decide what "today" is.
var LocalZone = time.FixedZone("UTC-3", int(LocalOffset.Seconds()))

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006/01/02",
}

/*
ParseRecordDate parses a record's date field.

Values with an explicit offset are returned as parsed with zoned=true.
Naive values keep their wall clock and are located at UTC with zoned=false;
the filters decide how to interpret that wall clock.
*/
func ParseRecordDate(raw string) (parsed time.Time, zoned bool, ok bool) {
	for _, layout := range zonedLayouts {
		value, parseErr := time.Parse(layout, raw)
		if parseErr == nil {
			return value, true, true
		}
	}
	for _, layout := range naiveLayouts {
		value, parseErr := time.Parse(layout, raw)
		if parseErr == nil {
			return value, false, true
		}
	}
	return parsed, false, false
}

// ParseCalendarDate parses a YYYY-MM-DD date at midnight UTC.
func ParseCalendarDate(raw string) (date time.Time, err error) {
	return time.Parse(DateLayout, raw)
}

// Today returns the calendar date of now in LocalZone, at midnight UTC.
func Today(now time.Time) time.Time {
	local := now.In(LocalZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
