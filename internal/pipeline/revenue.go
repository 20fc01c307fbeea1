package pipeline

import (
	"smartdash/internal/dataset"
	"smartdash/internal/schema"
)

// Revenue is the per-row revenue series for a whole table. When neither a
// revenue column nor a quantity+price pair is mapped, Available is false
// and every revenue-dependent output must degrade to its unavailable
// state instead of showing zeros.
type Revenue struct {
	Available bool
	// Values is indexed by absolute table row; missing cells already
	// count as zero.
	Values []float64
}

// ResolveRevenue determines the revenue figure per row. A mapped revenue
// column always wins; quantity × price is the fallback; otherwise revenue
// is undefined for the session.
func ResolveRevenue(tbl *dataset.Table, m schema.Mapping) Revenue {
	if col, ok := m.Column(schema.RoleRevenue); ok {
		if c, ok := dataset.CoerceFloats(tbl, col); ok {
			return Revenue{Available: true, Values: zeroFilled(c)}
		}
	}
	qtyCol, qok := m.Column(schema.RoleQuantity)
	priceCol, pok := m.Column(schema.RolePrice)
	if qok && pok {
		qty, ok1 := dataset.CoerceFloats(tbl, qtyCol)
		price, ok2 := dataset.CoerceFloats(tbl, priceCol)
		if ok1 && ok2 {
			q := zeroFilled(qty)
			p := zeroFilled(price)
			values := make([]float64, len(q))
			for i := range values {
				values[i] = q[i] * p[i]
			}
			return Revenue{Available: true, Values: values}
		}
	}
	return Revenue{}
}

func zeroFilled(c dataset.FloatColumn) []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if c.Valid[i] {
			out[i] = v
		}
	}
	return out
}
