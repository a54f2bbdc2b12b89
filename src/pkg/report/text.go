package report

import (
	"fmt"
	"strings"

	"fuel-report/src/pkg/prices"
)

/*
RenderText is the plain-text alternative body sent next to the HTML.

It lists the summary numbers and the top rows of every dimension.
*/
func RenderText(agg prices.AggregateReport, meta Meta) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s\n", meta.Title)
	fmt.Fprintf(&builder, "Generated: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04:05"))
	if meta.Mode == ModeDaily {
		fmt.Fprintf(&builder, "Day: %s\n\n", meta.PeriodEnd.Format(prices.DateLayout))
	} else {
		fmt.Fprintf(&builder, "Period: %s to %s\n\n", meta.PeriodStart.Format(prices.DateLayout), meta.PeriodEnd.Format(prices.DateLayout))
	}

	fmt.Fprintf(&builder, "Total records: %s\n", formatIntHuman(agg.TotalRecords))
	fmt.Fprintf(&builder, "Active stations: %s of %s (%s)\n", formatIntHuman(agg.ActiveEntitiesToday), formatIntHuman(agg.EntitiesEver), formatPercent(agg.StationCoverage))
	fmt.Fprintf(&builder, "Stations with price: %s (%s)\n", formatIntHuman(agg.EntitiesWithPrice), formatPercent(agg.PriceCoverage))
	fmt.Fprintf(&builder, "Distinct brands: %s\n", formatIntHuman(agg.DistinctBrands))

	if agg.TotalRecords == 0 {
		fmt.Fprintf(&builder, "\n%s\n", NoDataMessage)
		return builder.String()
	}

	for _, sec := range sections(agg) {
		fmt.Fprintf(&builder, "\n%s\n", sec.Title)
		for _, row := range buildRows(sec.Groups, agg.TotalRecords, meta.MaxRows) {
			fmt.Fprintf(&builder, "  - %s: %s (%s)\n", row.Name, formatIntHuman(row.Count), formatPercent(row.Percent))
		}
	}

	return builder.String()
}
