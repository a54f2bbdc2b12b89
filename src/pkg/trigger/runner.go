// Package trigger runs the report pipeline on demand and exposes it over HTTP.
package trigger

import (
	"context"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/mailer"
	"fuel-report/src/pkg/prices"
	"fuel-report/src/pkg/report"
)

// Fetcher returns the whole upstream dataset. *source.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (prices.Dataset, *xerr.Error)
}

// Sender delivers one report email. *mailer.Mailer implements it.
type Sender interface {
	Send(ctx context.Context, message mailer.Message) (mailer.Receipt, *xerr.Error)
}

/*
Result is what one successful run reports back.

Exactly one of TodayRecords and TotalRecords is set, depending on the mode.
*/
type Result struct {
	Success      bool   `json:"success"`
	TodayRecords *int   `json:"todayRecords,omitempty"`
	TotalRecords *int   `json:"totalRecords,omitempty"`
	EmailSent    bool   `json:"emailSent"`
	MessageID    string `json:"messageId"`
}

type Runner struct {
	Fetcher Fetcher
	Sender  Sender
	Report  report.Config
	Now     func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

/*
Run executes fetch, filter, aggregate, render and send, strictly in that order.

The first failing stage stops the run and its error is returned as is.
*/
func (r *Runner) Run(ctx context.Context, period Period, runID string) (result Result, e *xerr.Error) {
	startTime := time.Now()
	now := r.now()
	tl.Log(
		tl.Notice, palette.BlueBold, "Report run %s: mode=%s period=%s..%s",
		runID, period.Mode, period.Start.Format(prices.DateLayout), period.End.Format(prices.DateLayout),
	)

	full, e := r.Fetcher.Fetch(ctx)
	if e != nil {
		return result, e
	}

	agg, meta := Compose(full, period, r.Report, now, runID)

	receipt, e := r.Sender.Send(ctx, mailer.Message{
		Subject: Subject(meta),
		HTML:    report.RenderHTML(agg, meta),
		Text:    report.RenderText(agg, meta),
		RunID:   runID,
	})
	if e != nil {
		return result, e
	}

	count := agg.TotalRecords
	if period.Mode == report.ModeDaily {
		result.TodayRecords = &count
	} else {
		result.TotalRecords = &count
	}
	result.Success = true
	result.EmailSent = true
	result.MessageID = receipt.MessageID

	tl.Log(tl.Notice, palette.GreenBold, "Report run %s done: %s records, %s attempt(s), took %s", runID, count, receipt.Attempts, time.Since(startTime))
	return result, nil
}

/*
Compose applies the period's filter to full and aggregates the result.

Daily mode keeps the records dated today (UTC-3); range mode keeps the records
inside the period. Coverage is always measured against full.
*/
func Compose(full prices.Dataset, period Period, cfg report.Config, now time.Time, runID string) (agg prices.AggregateReport, meta report.Meta) {
	var subset prices.Dataset
	if period.Mode == report.ModeDaily {
		subset = prices.FilterToday(full, now)
	} else {
		subset = prices.FilterByRange(full, period.Start, period.End)
	}
	agg = prices.Aggregate(subset, full)

	meta = report.Meta{
		Title:       cfg.Title,
		Mode:        period.Mode,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		GeneratedAt: now.In(prices.LocalZone),
		Timezone:    cfg.Timezone,
		MaxRows:     cfg.MaxRows,
		RunID:       runID,
	}
	if period.Mode == report.ModeDaily {
		meta.PeriodEnd = prices.Today(now)
	}
	return agg, meta
}

// Subject is the email subject for a report.
func Subject(meta report.Meta) string {
	if meta.Mode == report.ModeDaily {
		return meta.Title + " - " + meta.PeriodEnd.Format(prices.DateLayout)
	}
	return meta.Title + " - " + meta.PeriodStart.Format(prices.DateLayout) + " to " + meta.PeriodEnd.Format(prices.DateLayout)
}
