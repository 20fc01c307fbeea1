package pipeline

import (
	"fmt"
	"time"

	"smartdash/internal/dataset"
	"smartdash/internal/schema"
)

// GenerateInsights derives the quick-insight lines in fixed order: best
// month, best weekday, lowest performing product, best sales rep. Each
// insight is independently gated on its preconditions and simply omitted
// when they are unmet.
func GenerateInsights(v View, rev Revenue, m schema.Mapping, kpis KPISnapshot) []string {
	var insights []string

	if dateCol, ok := m.Column(schema.RoleDate); ok && rev.Available {
		if dates, ok := dataset.CoerceDates(v.Table, dateCol); ok {
			if month, ok := bestMonth(v, rev, dates); ok {
				insights = append(insights, fmt.Sprintf("Best month for sales: %s.", month))
			}
			if day, ok := bestWeekday(v, rev, dates); ok {
				insights = append(insights, fmt.Sprintf("Highest sales day: %s.", day))
			}
		}
	}

	if prodCol, ok := m.Column(schema.RoleProduct); ok && rev.Available {
		groups := GroupSum(v, rev, prodCol)
		// "Lowest" is meaningless with a single product.
		if groups.Len() > 1 {
			if low, _, ok := groups.Min(); ok {
				insights = append(insights, fmt.Sprintf("Lowest performing product: %s.", low))
			}
		}
	}

	if _, ok := m.Column(schema.RoleRep); ok && rev.Available && kpis.TopRep != Sentinel {
		insights = append(insights, fmt.Sprintf("Best sales rep: %s.", kpis.TopRep))
	}

	return insights
}

// bestMonth groups revenue by calendar month number (1-12, across years)
// and names the month with the largest sum.
func bestMonth(v View, rev Revenue, dates dataset.DateColumn) (string, bool) {
	sums := make(map[time.Month]float64)
	var order []time.Month
	for _, row := range v.Rows {
		if !dates.Valid[row] {
			continue
		}
		mo := dates.Values[row].Month()
		if _, seen := sums[mo]; !seen {
			order = append(order, mo)
		}
		sums[mo] += rev.Values[row]
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, mo := range order[1:] {
		if sums[mo] > sums[best] {
			best = mo
		}
	}
	return best.String(), true
}

func bestWeekday(v View, rev Revenue, dates dataset.DateColumn) (string, bool) {
	sums := make(map[time.Weekday]float64)
	var order []time.Weekday
	for _, row := range v.Rows {
		if !dates.Valid[row] {
			continue
		}
		wd := dates.Values[row].Weekday()
		if _, seen := sums[wd]; !seen {
			order = append(order, wd)
		}
		sums[wd] += rev.Values[row]
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, wd := range order[1:] {
		if sums[wd] > sums[best] {
			best = wd
		}
	}
	return best.String(), true
}
