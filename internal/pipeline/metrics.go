package pipeline

import (
	"smartdash/internal/dataset"
	"smartdash/internal/schema"
)

// Sentinel marks a "top X" aggregate that cannot be computed under the
// current mappings or data.
const Sentinel = "—"

// KPISnapshot is the fixed-shape metrics record recomputed on every filter
// or mapping change. No history is kept.
type KPISnapshot struct {
	OrderCount       int     `json:"order_count"`
	RevenueAvailable bool    `json:"revenue_available"`
	TotalRevenue     float64 `json:"total_revenue"`
	// UnitsAvailable separates "no quantity column" from a quantity column
	// that genuinely sums to zero.
	UnitsAvailable bool    `json:"units_available"`
	TotalUnits     float64 `json:"total_units"`
	AvgOrderValue    float64 `json:"avg_order_value"`
	TopProduct       string  `json:"top_product"`
	TopRegion        string  `json:"top_region"`
	TopRep           string  `json:"top_rep"`
}

// ComputeKPIs evaluates the scalar KPIs and the "best of" aggregates over
// the filtered view.
func ComputeKPIs(v View, rev Revenue, m schema.Mapping) KPISnapshot {
	k := KPISnapshot{
		OrderCount:       v.NumRows(),
		RevenueAvailable: rev.Available,
	}
	if rev.Available {
		for _, row := range v.Rows {
			k.TotalRevenue += rev.Values[row]
		}
	}
	if qtyCol, ok := m.Column(schema.RoleQuantity); ok {
		if c, ok := dataset.CoerceFloats(v.Table, qtyCol); ok {
			k.UnitsAvailable = true
			for _, row := range v.Rows {
				if c.Valid[row] {
					k.TotalUnits += c.Values[row]
				}
			}
		}
	}
	if k.OrderCount > 0 {
		k.AvgOrderValue = k.TotalRevenue / float64(k.OrderCount)
	}
	k.TopProduct = topByRevenue(v, rev, m, schema.RoleProduct)
	k.TopRegion = topByRevenue(v, rev, m, schema.RoleRegion)
	k.TopRep = topByRevenue(v, rev, m, schema.RoleRep)
	return k
}

func topByRevenue(v View, rev Revenue, m schema.Mapping, role schema.Role) string {
	col, ok := m.Column(role)
	if !ok || !rev.Available {
		return Sentinel
	}
	groups := GroupSum(v, rev, col)
	key, _, ok := groups.Max()
	if !ok {
		return Sentinel
	}
	return key
}

// Grouping is a group-by-sum result. Keys keeps first-appearance (original
// row) order, which fixes the tie-break for Max/Min: the scan only replaces
// the champion on a strictly larger (or smaller) sum, so the first group
// reaching the extreme wins.
type Grouping struct {
	Keys []string
	Sums map[string]float64
}

// GroupSum groups the view's rows by the raw value of col and sums the
// revenue series per group. Rows with a missing group value are excluded.
func GroupSum(v View, rev Revenue, col string) Grouping {
	g := Grouping{Sums: make(map[string]float64)}
	idx := v.Table.ColumnIndex(col)
	if idx < 0 {
		return g
	}
	for _, row := range v.Rows {
		key := v.Table.Rows[row][idx]
		if key == "" {
			continue
		}
		if _, seen := g.Sums[key]; !seen {
			g.Keys = append(g.Keys, key)
		}
		g.Sums[key] += rev.Values[row]
	}
	return g
}

// Max returns the group key with the largest sum, ok=false when the
// grouping is empty.
func (g Grouping) Max() (string, float64, bool) {
	if len(g.Keys) == 0 {
		return "", 0, false
	}
	best := g.Keys[0]
	for _, k := range g.Keys[1:] {
		if g.Sums[k] > g.Sums[best] {
			best = k
		}
	}
	return best, g.Sums[best], true
}

// Min returns the group key with the smallest sum, ok=false when empty.
func (g Grouping) Min() (string, float64, bool) {
	if len(g.Keys) == 0 {
		return "", 0, false
	}
	best := g.Keys[0]
	for _, k := range g.Keys[1:] {
		if g.Sums[k] < g.Sums[best] {
			best = k
		}
	}
	return best, g.Sums[best], true
}

// Len reports the number of distinct groups.
func (g Grouping) Len() int { return len(g.Keys) }
