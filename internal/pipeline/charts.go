package pipeline

import (
	"sort"
	"time"

	"smartdash/internal/dataset"
	"smartdash/internal/schema"
)

// ChartPoint is one pre-aggregated (label, revenue) pair.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is one chart's data. When preconditions are unmet, Available
// is false and Reason says what is missing; the frontend shows a notice
// instead of an empty chart.
type ChartSeries struct {
	Available bool         `json:"available"`
	Reason    string       `json:"reason,omitempty"`
	Points    []ChartPoint `json:"points,omitempty"`
}

// ChartData carries the three dashboard charts.
type ChartData struct {
	MonthlyTrend    ChartSeries `json:"monthly_trend"`
	TopProducts     ChartSeries `json:"top_products"`
	RevenueByRegion ChartSeries `json:"revenue_by_region"`
}

const topProductsLimit = 5

// PrepareCharts aggregates the filtered view into the three chart series.
func PrepareCharts(v View, rev Revenue, m schema.Mapping) ChartData {
	return ChartData{
		MonthlyTrend:    monthlyTrend(v, rev, m),
		TopProducts:     rankedRevenue(v, rev, m, schema.RoleProduct, topProductsLimit, "requires a product column and revenue"),
		RevenueByRegion: rankedRevenue(v, rev, m, schema.RoleRegion, 0, "requires a region column and revenue"),
	}
}

// monthlyTrend buckets rows into calendar year-months and sums revenue per
// bucket. The series covers every month between the first and last bucket,
// so months with no rows show up as zero-revenue dips rather than vanishing.
func monthlyTrend(v View, rev Revenue, m schema.Mapping) ChartSeries {
	dateCol, ok := m.Column(schema.RoleDate)
	if !ok || !rev.Available {
		return ChartSeries{Reason: "requires a date column and revenue"}
	}
	dates, ok := dataset.CoerceDates(v.Table, dateCol)
	if !ok {
		return ChartSeries{Reason: "requires a date column and revenue"}
	}

	sums := make(map[time.Time]float64)
	var first, last time.Time
	for _, row := range v.Rows {
		if !dates.Valid[row] {
			continue
		}
		d := dates.Values[row]
		bucket := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if len(sums) == 0 || bucket.Before(first) {
			first = bucket
		}
		if len(sums) == 0 || bucket.After(last) {
			last = bucket
		}
		sums[bucket] += rev.Values[row]
	}
	if len(sums) == 0 {
		return ChartSeries{Available: true}
	}

	var points []ChartPoint
	for b := first; !b.After(last); b = b.AddDate(0, 1, 0) {
		points = append(points, ChartPoint{Label: b.Format("Jan 2006"), Value: sums[b]})
	}
	return ChartSeries{Available: true, Points: points}
}

// rankedRevenue groups by the role's column, sums revenue, and emits groups
// in descending revenue order. limit 0 means uncapped. Ties keep the
// grouping's first-appearance order.
func rankedRevenue(v View, rev Revenue, m schema.Mapping, role schema.Role, limit int, reason string) ChartSeries {
	col, ok := m.Column(role)
	if !ok || !rev.Available {
		return ChartSeries{Reason: reason}
	}
	groups := GroupSum(v, rev, col)
	points := make([]ChartPoint, 0, groups.Len())
	for _, key := range groups.Keys {
		points = append(points, ChartPoint{Label: key, Value: groups.Sums[key]})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })
	if limit > 0 && len(points) > limit {
		points = points[:limit]
	}
	return ChartSeries{Available: true, Points: points}
}
