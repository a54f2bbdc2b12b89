// Package report renders an aggregated price report as a self-contained HTML email.
// Rendering is pure: no I/O, no clock, no network.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fuel-report/src/pkg/prices"
	"fuel-report/src/pkg/util"
)

// NoDataMessage is shown instead of the tables when the period has no records.
const NoDataMessage = "No price records were found for this period."

// Mode names which filter produced the report.
type Mode string

const (
	ModeDaily Mode = "daily"
	ModeRange Mode = "range"
)

/*
Meta is everything the HTML needs besides the numbers.
*/
type Meta struct {
	Title       string    `json:"title"`
	Mode        Mode      `json:"mode"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	GeneratedAt time.Time `json:"generated_at"`
	Timezone    string    `json:"timezone"`
	MaxRows     int       `json:"max_rows"` // rows per table before the remainder is folded into "Other"; 0 keeps all
	RunID       string    `json:"run_id,omitempty"`
}

/*
tableRow is a rendered row in one dimension table.
*/
type tableRow struct {
	Name       string
	Count      int
	Percent    float64
	Stations   int
	AvgPrice   decimal.Decimal
	BarPercent int
	Color      string
}

type section struct {
	Key          string
	Title        string
	Subtitle     string
	Groups       []prices.GroupSummary
	ShowAvgPrice bool
}

var paletteColors = []string{
	"#2563EB", "#7C3AED", "#059669", "#DB2777", "#D97706",
	"#0EA5E9", "#65A30D", "#9333EA", "#F43F5E", "#14B8A6",
	"#4F46E5", "#B45309",
}

/*
RenderHTML converts an AggregateReport into a single HTML string using inline CSS only.

When the report has no records a placeholder is rendered and no tables are emitted.
*/
func RenderHTML(agg prices.AggregateReport, meta Meta) (htmlText string) {
	var buffer bytes.Buffer

	buffer.WriteString("<!doctype html>")
	buffer.WriteString("<html>")
	buffer.WriteString("<head>")
	buffer.WriteString(`<meta charset="utf-8">`)
	buffer.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buffer.WriteString("<title>" + html.EscapeString(meta.Title) + "</title>")
	buffer.WriteString("</head>")

	bodyStyle := "margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Inter,Arial,sans-serif;color:#111827;"
	buffer.WriteString(`<body style="` + bodyStyle + `">`)

	// Outer wrapper table (email-safe centering).
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;background-color:#F3F4F6;">`)
	buffer.WriteString(`<tr>`)
	buffer.WriteString(`<td align="center" style="padding:24px;">`)

	// Main container.
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="680" style="border-collapse:separate;background-color:#F3F4F6;width:680px;max-width:680px;">`)
	buffer.WriteString(`<tr><td style="padding:0;">`)

	writeHeader(&buffer, meta)
	writeSummaryCards(&buffer, agg)

	if agg.TotalRecords == 0 {
		writeNoData(&buffer)
	} else {
		for _, sec := range sections(agg) {
			writeSection(&buffer, sec, agg.TotalRecords, meta.MaxRows)
		}
	}

	// Footer.
	buffer.WriteString(`<div style="padding:4px 4px 0 4px;font-size:11px;line-height:1.6;color:#9CA3AF;">`)
	buffer.WriteString(`Generated ` + html.EscapeString(meta.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	if meta.RunID != "" {
		buffer.WriteString(` &nbsp;•&nbsp; Run ` + html.EscapeString(meta.RunID))
	}
	buffer.WriteString(`</div>`)

	// Close main container and wrappers.
	buffer.WriteString(`</td></tr>`)
	buffer.WriteString(`</table>`)

	buffer.WriteString(`</td>`)
	buffer.WriteString(`</tr>`)
	buffer.WriteString(`</table>`)

	buffer.WriteString(`</body>`)
	buffer.WriteString(`</html>`)

	htmlText = buffer.String()
	return htmlText
}

func sections(agg prices.AggregateReport) []section {
	return []section{
		{Key: "product", Title: "Products", Subtitle: "Records per product, share of all records and average positive price.", Groups: agg.ByProduct, ShowAvgPrice: true},
		{Key: "province", Title: "Provinces", Subtitle: "Records per province.", Groups: agg.ByProvince},
		{Key: "brand", Title: "Brands", Subtitle: "Records per flag/brand.", Groups: agg.ByBrand},
		{Key: "company", Title: "Stations", Subtitle: "Records per reporting station.", Groups: agg.ByCompany},
		{Key: "locality", Title: "Top localities", Subtitle: fmt.Sprintf("The %d localities with most records.", prices.LocalityLimit), Groups: agg.ByLocality},
	}
}

func writeHeader(buffer *bytes.Buffer, meta Meta) {
	period := meta.PeriodStart.Format(prices.DateLayout) + ` → ` + meta.PeriodEnd.Format(prices.DateLayout)
	modeLabel := "Date range"
	if meta.Mode == ModeDaily {
		modeLabel = "Daily (today)"
		period = meta.PeriodEnd.Format(prices.DateLayout)
	}

	buffer.WriteString(`<div style="padding:8px 4px 18px 4px;">`)
	buffer.WriteString(`<div style="font-size:24px;font-weight:800;line-height:1.2;color:#111827;">` + html.EscapeString(meta.Title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:6px;font-size:13px;line-height:1.5;color:#6B7280;">`)
	buffer.WriteString(`Generated: <span style="font-weight:700;color:#111827;">` + html.EscapeString(meta.GeneratedAt.Format("2006-01-02 15:04:05")) + `</span>`)
	buffer.WriteString(` &nbsp;•&nbsp; ` + html.EscapeString(modeLabel) + `: <span style="font-weight:700;color:#111827;">` + html.EscapeString(period) + `</span>`)
	if meta.Timezone != "" {
		buffer.WriteString(` &nbsp;•&nbsp; Timezone: <span style="font-weight:700;color:#111827;">` + html.EscapeString(meta.Timezone) + `</span>`)
	}
	buffer.WriteString(`</div>`)
	buffer.WriteString(`</div>`)
}

func writeSummaryCards(buffer *bytes.Buffer, agg prices.AggregateReport) {
	cards := []struct {
		Label string
		Value string
		Hint  string
	}{
		{"Total records", formatIntHuman(agg.TotalRecords), "in the selected period"},
		{"Active stations", formatIntHuman(agg.ActiveEntitiesToday), "of " + formatIntHuman(agg.EntitiesEver) + " seen"},
		{"Station coverage", formatPercent(agg.StationCoverage), "active / seen"},
		{"Distinct brands", formatIntHuman(agg.DistinctBrands), "with at least one record"},
		{"Price coverage", formatPercent(agg.PriceCoverage), "active stations with a price > 0"},
	}

	buffer.WriteString(`<div style="padding:0 0 18px 0;">`)
	buffer.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:separate;border-spacing:8px 0;">`)
	buffer.WriteString(`<tr>`)
	for _, card := range cards {
		buffer.WriteString(`<td data-card="` + html.EscapeString(card.Label) + `" style="vertical-align:top;padding:14px 12px;background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:12px;">`)
		buffer.WriteString(`<div style="font-size:11px;letter-spacing:0.08em;text-transform:uppercase;color:#6B7280;">` + html.EscapeString(card.Label) + `</div>`)
		buffer.WriteString(`<div style="margin-top:6px;font-size:22px;font-weight:900;line-height:1.1;color:#111827;">` + html.EscapeString(card.Value) + `</div>`)
		buffer.WriteString(`<div style="margin-top:4px;font-size:11px;line-height:1.4;color:#9CA3AF;">` + html.EscapeString(card.Hint) + `</div>`)
		buffer.WriteString(`</td>`)
	}
	buffer.WriteString(`</tr>`)
	buffer.WriteString(`</table>`)
	buffer.WriteString(`</div>`)
}

func writeNoData(buffer *bytes.Buffer) {
	buffer.WriteString(`<div style="padding:0 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div data-role="no-data" style="margin:18px;padding:14px;border:1px dashed #D1D5DB;border-radius:12px;background-color:#FAFAFA;color:#6B7280;font-size:13px;line-height:1.6;">`)
	buffer.WriteString(html.EscapeString(NoDataMessage))
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)
}

func writeSection(buffer *bytes.Buffer, sec section, total int, maxRows int) {
	rows := buildRows(sec.Groups, total, maxRows)

	buffer.WriteString(`<div style="padding:0 0 18px 0;">`)
	buffer.WriteString(cardOpen())
	buffer.WriteString(`<div style="padding:16px 18px 6px 18px;">`)
	buffer.WriteString(`<div style="font-size:14px;font-weight:800;color:#111827;">` + html.EscapeString(sec.Title) + `</div>`)
	buffer.WriteString(`<div style="margin-top:4px;font-size:12px;line-height:1.5;color:#6B7280;">` + html.EscapeString(sec.Subtitle) + `</div>`)
	buffer.WriteString(`</div>`)

	buffer.WriteString(`<div style="padding:0 18px 18px 18px;">`)
	buffer.WriteString(`<table data-section="` + sec.Key + `" cellpadding="0" cellspacing="0" border="0" width="100%" style="border-collapse:collapse;font-size:13px;">`)

	headerStyle := `style="padding:8px 6px;border-bottom:1px solid #E5E7EB;font-size:11px;letter-spacing:0.06em;text-transform:uppercase;color:#6B7280;"`
	buffer.WriteString(`<tr>`)
	buffer.WriteString(`<th align="left" ` + headerStyle + `>Name</th>`)
	buffer.WriteString(`<th align="right" ` + headerStyle + `>Count</th>`)
	buffer.WriteString(`<th align="right" ` + headerStyle + `>Percentage</th>`)
	buffer.WriteString(`<th align="right" ` + headerStyle + `>Stations</th>`)
	if sec.ShowAvgPrice {
		buffer.WriteString(`<th align="right" ` + headerStyle + `>Avg price</th>`)
	}
	buffer.WriteString(`</tr>`)

	cellStyle := `style="padding:8px 6px;border-bottom:1px solid #F3F4F6;color:#111827;"`
	for _, row := range rows {
		buffer.WriteString(`<tr>`)

		// Name with dot and bar.
		buffer.WriteString(`<td ` + cellStyle + `>`)
		buffer.WriteString(`<div style="display:inline-block;width:8px;height:8px;border-radius:999px;background-color:` + row.Color + `;margin-right:8px;"></div>`)
		buffer.WriteString(`<span style="font-weight:700;">` + html.EscapeString(row.Name) + `</span>`)
		buffer.WriteString(`<div style="margin-top:6px;width:100%;height:6px;border-radius:999px;background-color:#EEF2FF;overflow:hidden;">`)
		buffer.WriteString(`<div style="height:6px;width:` + strconv.Itoa(row.BarPercent) + `%;background-color:` + row.Color + `;border-radius:999px;"></div>`)
		buffer.WriteString(`</div>`)
		buffer.WriteString(`</td>`)

		buffer.WriteString(`<td align="right" ` + cellStyle + `>` + formatIntHuman(row.Count) + `</td>`)
		buffer.WriteString(`<td align="right" ` + cellStyle + `>` + formatPercent(row.Percent) + `</td>`)
		buffer.WriteString(`<td align="right" ` + cellStyle + `>` + formatIntHuman(row.Stations) + `</td>`)
		if sec.ShowAvgPrice {
			avg := "—"
			if row.AvgPrice.IsPositive() {
				avg = formatPrice(row.AvgPrice)
			}
			buffer.WriteString(`<td align="right" ` + cellStyle + `>` + html.EscapeString(avg) + `</td>`)
		}
		buffer.WriteString(`</tr>`)
	}

	buffer.WriteString(`</table>`)
	buffer.WriteString(`</div>`)
	buffer.WriteString(cardClose())
	buffer.WriteString(`</div>`)
}

/*
buildRows converts group summaries into rendered rows, assigns colors, and
folds the overflow into one "Other" row when maxRows is set.
*/
func buildRows(groups []prices.GroupSummary, total int, maxRows int) []tableRow {
	rows := make([]tableRow, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, tableRow{
			Name:     group.Name,
			Count:    group.Count,
			Percent:  group.Percentage,
			Stations: group.DistinctEntityCount,
			AvgPrice: group.AveragePrice,
		})
	}

	if maxRows > 0 && len(rows) > maxRows {
		if maxRows < 2 {
			maxRows = 2
		}
		keep := rows[:maxRows-1]
		rest := groups[maxRows-1:]

		other := tableRow{Name: fmt.Sprintf("Other (%d more)", len(rest))}
		stations := make(map[string]struct{})
		for _, group := range rest {
			other.Count += group.Count
			for _, record := range group.Records {
				if id := record.EntityID(); id != "" {
					stations[id] = struct{}{}
				}
			}
		}
		other.Stations = len(stations)
		other.Percent = util.Percentage(other.Count, total)

		rows = append(keep[:len(keep):len(keep)], other)
	}

	for index := range rows {
		rows[index].Color = paletteColors[index%len(paletteColors)]
		barPercent := int(util.ClampPercent(rows[index].Percent) + 0.5)
		if rows[index].Count > 0 && barPercent == 0 {
			barPercent = 1
		}
		rows[index].BarPercent = barPercent
	}

	return rows
}

/*
cardOpen returns the opening HTML for a card-like container (email-safe).
*/
func cardOpen() string {
	return `<div style="background-color:#FFFFFF;border:1px solid #E5E7EB;border-radius:16px;box-shadow:0 8px 24px rgba(17,24,39,0.06);overflow:hidden;">`
}

/*
cardClose returns the closing HTML for a card-like container.
*/
func cardClose() string {
	return `</div>`
}
