package trigger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/prices"
	"fuel-report/src/pkg/report"
)

// ErrValidation marks a bad trigger request. It maps to HTTP 400.
var ErrValidation = errors.New("invalid report request")

const (
	MsgInvalidDateFormat = "Invalid date format. Use YYYY-MM-DD."
	MsgStartAfterEnd     = "Start date cannot be after end date."
)

// DefaultWindow is the trailing window used when a date is missing.
const DefaultWindow = 7 * 24 * time.Hour

// Request is the optional date range of a trigger, from the JSON body or the query string.
type Request struct {
	StartDate string `json:"startDate" query:"startDate" form:"startDate"`
	EndDate   string `json:"endDate" query:"endDate" form:"endDate"`
}

// Period is a resolved, validated report window.
type Period struct {
	Start time.Time
	End   time.Time
	Mode  report.Mode
}

/*
ResolvePeriod validates the request dates and fills in the missing ones.

With no dates at all the period is the daily report: end is today in UTC-3 and
start is 7 days earlier. Any explicit date switches to range mode; a missing end
is still today and a missing start is still end minus 7 days.
*/
func ResolvePeriod(request Request, now time.Time) (period Period, e *xerr.Error) {
	startRaw := strings.TrimSpace(request.StartDate)
	endRaw := strings.TrimSpace(request.EndDate)

	period.Mode = report.ModeRange
	if startRaw == "" && endRaw == "" {
		period.Mode = report.ModeDaily
	}

	period.End = prices.Today(now)
	if endRaw != "" {
		end, parseErr := prices.ParseCalendarDate(endRaw)
		if parseErr != nil {
			return period, xerr.NewErrorECOL(fmt.Errorf("%w: %w", ErrValidation, parseErr), MsgInvalidDateFormat, "endDate", endRaw)
		}
		period.End = end
	}

	period.Start = period.End.Add(-DefaultWindow)
	if startRaw != "" {
		start, parseErr := prices.ParseCalendarDate(startRaw)
		if parseErr != nil {
			return period, xerr.NewErrorECOL(fmt.Errorf("%w: %w", ErrValidation, parseErr), MsgInvalidDateFormat, "startDate", startRaw)
		}
		period.Start = start
	}

	if period.Start.After(period.End) {
		return period, xerr.NewErrorECOL(
			fmt.Errorf("%w: start %s is after end %s", ErrValidation, period.Start.Format(prices.DateLayout), period.End.Format(prices.DateLayout)),
			MsgStartAfterEnd, "request", request,
		)
	}
	return period, nil
}
