package prices

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"fuel-report/src/pkg/util"
)

// LocalityLimit caps the locality ranking.
const LocalityLimit = 10

// GroupSummary is one distinct value of a grouping dimension.
type GroupSummary struct {
	Name                string          `json:"name"`
	Count               int             `json:"count"`
	DistinctEntityCount int             `json:"distinctEntityCount"`
	Percentage          float64         `json:"percentage"`
	AveragePrice        decimal.Decimal `json:"averagePrice"` // mean of strictly positive prices, 0 when none
	Records             []Record        `json:"-"`
}

// AggregateReport is everything the renderer needs, computed in one call.
type AggregateReport struct {
	TotalRecords int `json:"totalRecords"`

	ByProduct  []GroupSummary `json:"byProduct"`
	ByProvince []GroupSummary `json:"byProvince"`
	ByCompany  []GroupSummary `json:"byCompany"`
	ByBrand    []GroupSummary `json:"byBrand"`
	ByLocality []GroupSummary `json:"byLocality"`

	EntitiesEver        int     `json:"entitiesEver"`
	ActiveEntitiesToday int     `json:"activeEntitiesToday"`
	EntitiesWithPrice   int     `json:"entitiesWithPrice"`
	StationCoverage     float64 `json:"stationCoverage"` // active / ever
	PriceCoverage       float64 `json:"priceCoverage"`   // with positive price / active
	DistinctBrands      int     `json:"distinctBrands"`
}

/*
Aggregate groups the filtered subset by every dimension and computes the coverage
statistics against the full dataset.

It is total: an empty subset gives TotalRecords 0, empty group lists and zero
percentages.
*/
func Aggregate(subset Dataset, full Dataset) (report AggregateReport) {
	records := subset.Records
	total := len(records)

	report.TotalRecords = total
	report.ByProduct = groupBy(records, total, func(r Record) string { return r.Product })
	report.ByProvince = groupBy(records, total, func(r Record) string { return r.Province })
	report.ByCompany = groupBy(records, total, func(r Record) string { return r.Company })
	report.ByBrand = groupBy(records, total, func(r Record) string { return r.Brand })
	report.ByLocality = topN(groupBy(records, total, func(r Record) string { return r.Locality }), LocalityLimit)

	everSeen := entitySet(full.Records, nil)
	activeToday := entitySet(records, nil)
	withPrice := entitySet(records, func(r Record) bool { return r.HasPrice && r.Price.IsPositive() })

	report.EntitiesEver = len(everSeen)
	report.ActiveEntitiesToday = len(activeToday)
	report.EntitiesWithPrice = len(withPrice)
	report.StationCoverage = util.Percentage(len(activeToday), len(everSeen))
	report.PriceCoverage = util.Percentage(len(withPrice), len(activeToday))

	for _, group := range report.ByBrand {
		if group.Name != Unspecified {
			report.DistinctBrands++
		}
	}

	tl.Log(
		tl.Info1, palette.Green, "Aggregated %s records: %s products, %s provinces, %s stations active of %s seen",
		total, len(report.ByProduct), len(report.ByProvince), report.ActiveEntitiesToday, report.EntitiesEver,
	)
	return report
}

/*
groupBy buckets records by key in a single pass.

Blank keys go to Unspecified. The result is sorted by count descending; equal
counts keep the order in which the values were first seen.
*/
func groupBy(records []Record, total int, key func(Record) string) []GroupSummary {
	groups := make([]*GroupSummary, 0)
	groupByName := make(map[string]*GroupSummary)

	for _, record := range records {
		name := strings.TrimSpace(key(record))
		if name == "" {
			name = Unspecified
		}
		group, exists := groupByName[name]
		if !exists {
			group = &GroupSummary{Name: name}
			groupByName[name] = group
			groups = append(groups, group)
		}
		group.Records = append(group.Records, record)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, group := range groups {
		group.Count = len(group.Records)
		group.DistinctEntityCount = len(entitySet(group.Records, nil))
		group.Percentage = util.ClampPercent(util.Percentage(group.Count, total))
		group.AveragePrice = averagePositivePrice(group.Records)
		summaries = append(summaries, *group)
	}

	sort.SliceStable(summaries, func(first, second int) bool {
		return summaries[first].Count > summaries[second].Count
	})
	return summaries
}

func topN(groups []GroupSummary, limit int) []GroupSummary {
	if len(groups) > limit {
		return groups[:limit]
	}
	return groups
}

// entitySet collects non-blank entity ids of records accepted by keep (nil keeps all).
func entitySet(records []Record, keep func(Record) bool) map[string]struct{} {
	set := make(map[string]struct{})
	for _, record := range records {
		if keep != nil && !keep(record) {
			continue
		}
		id := record.EntityID()
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

func averagePositivePrice(records []Record) decimal.Decimal {
	sum := decimal.Zero
	count := int64(0)
	for _, record := range records {
		if record.HasPrice && record.Price.IsPositive() {
			sum = sum.Add(record.Price)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(count)).Round(2)
}
