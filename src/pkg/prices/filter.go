package prices

import (
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
FilterByRange keeps records whose date, shifted back by 3 hours, falls on a
calendar day in [start, end] (both inclusive).

Naive timestamps are read as UTC wall clock before the shift; timestamps with an
offset are converted to UTC first. Records without a parseable date never match.
Only the calendar part of start and end is used.
*/
func FilterByRange(dataset Dataset, start, end time.Time) (filtered Dataset) {
	startKey := start.Format(DateLayout)
	endKey := end.Format(DateLayout)
	filtered = Dataset{Envelope: dataset.Envelope, Records: make([]Record, 0)}

	for _, record := range dataset.Records {
		if !record.DateValid {
			continue
		}
		key := record.Date.UTC().Add(LocalOffset).Format(DateLayout)
		if key >= startKey && key <= endKey {
			filtered.Records = append(filtered.Records, record)
		}
	}

	tl.Log(
		tl.Info1, palette.Cyan, "Range filter %s..%s kept %s of %s records",
		startKey, endKey, len(filtered.Records), len(dataset.Records),
	)
	return filtered
}

/*
FilterToday keeps records dated on today's calendar day in UTC-3.

The record's date is taken as already local: naive values are compared by their
written calendar date, values with an offset are converted to UTC-3 first.
No shift is applied.
*/
func FilterToday(dataset Dataset, now time.Time) (filtered Dataset) {
	todayKey := now.In(LocalZone).Format(DateLayout)
	filtered = Dataset{Envelope: dataset.Envelope, Records: make([]Record, 0)}

	for _, record := range dataset.Records {
		if !record.DateValid {
			continue
		}
		date := record.Date
		if record.DateZoned {
			date = date.In(LocalZone)
		}
		if date.Format(DateLayout) == todayKey {
			filtered.Records = append(filtered.Records, record)
		}
	}

	tl.Log(
		tl.Info1, palette.Cyan, "Today filter (%s) kept %s of %s records",
		todayKey, len(filtered.Records), len(dataset.Records),
	)
	return filtered
}
