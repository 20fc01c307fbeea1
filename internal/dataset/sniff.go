package dataset

// ColumnKind is a loose data-type guess used to annotate selector options.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindDate        ColumnKind = "date"
	KindCategorical ColumnKind = "categorical"
)

const sniffSample = 20

// SniffKinds guesses a kind per column from a bounded row sample. Empty
// cells are skipped; a column with no usable sample counts as categorical.
func SniffKinds(t *Table) map[string]ColumnKind {
	kinds := make(map[string]ColumnKind, len(t.Columns))
	for i, col := range t.Columns {
		kinds[col] = sniffColumn(t, i)
	}
	return kinds
}

func sniffColumn(t *Table, idx int) ColumnKind {
	limit := sniffSample
	if len(t.Rows) < limit {
		limit = len(t.Rows)
	}
	numeric, date, checked := true, true, 0
	for i := 0; i < limit; i++ {
		v := t.Rows[i][idx]
		if v == "" {
			continue
		}
		checked++
		if _, ok := ParseFloat(v); !ok {
			numeric = false
		}
		if _, ok := ParseDate(v); !ok {
			date = false
		}
	}
	if checked == 0 {
		return KindCategorical
	}
	switch {
	case numeric:
		return KindNumeric
	case date:
		return KindDate
	default:
		return KindCategorical
	}
}
