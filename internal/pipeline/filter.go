// Package pipeline turns one session's table, mapping and filter selections
// into the complete view model the dashboard renders. Everything in here is
// pure: the raw table is never mutated and each call recomputes from
// scratch.
package pipeline

import (
	"smartdash/internal/dataset"
	"smartdash/internal/schema"
	"smartdash/internal/session"
)

// View is a filtered row subset of a table, kept as row indices in upload
// order.
type View struct {
	Table *dataset.Table
	Rows  []int
}

// NumRows returns the surviving row count.
func (v View) NumRows() int { return len(v.Rows) }

// ApplyFilters builds the filtered view: for each filter role that is both
// mapped and has a non-empty chosen subset, rows must have a member value
// (OR within a role, AND across roles). Roles without a mapping or a
// selection are no-ops, so zero active filters yield the full table.
func ApplyFilters(s *session.Session) View {
	tbl := s.Table
	type activeFilter struct {
		colIdx int
		values map[string]struct{}
	}
	var active []activeFilter
	for _, role := range schema.FilterRoles {
		col, ok := s.Mapping.Column(role)
		if !ok || !tbl.HasColumn(col) {
			continue
		}
		chosen := s.FilterValues(role)
		if len(chosen) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(chosen))
		for _, v := range chosen {
			set[v] = struct{}{}
		}
		active = append(active, activeFilter{colIdx: tbl.ColumnIndex(col), values: set})
	}

	rows := make([]int, 0, tbl.NumRows())
	for i := range tbl.Rows {
		keep := true
		for _, f := range active {
			if _, ok := f.values[tbl.Rows[i][f.colIdx]]; !ok {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, i)
		}
	}
	return View{Table: tbl, Rows: rows}
}
