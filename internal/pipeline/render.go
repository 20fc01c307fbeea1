package pipeline

import (
	"smartdash/internal/dataset"
	"smartdash/internal/schema"
	"smartdash/internal/session"
)

// Preview is the data-table excerpt shown under the KPI cards.
type Preview struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated"`
}

// ViewModel is everything the interactive surface needs to draw one frame
// of the dashboard. It is rebuilt from scratch on every interaction.
type ViewModel struct {
	Columns     []string                      `json:"columns"`
	ColumnKinds map[string]dataset.ColumnKind `json:"column_kinds"`

	// Mapping holds role -> column for set roles only; Roles lists every
	// selectable role so the surface can render one selector each.
	Roles   []string          `json:"roles"`
	Mapping map[string]string `json:"mapping"`

	// FilterOptions lists, per mapped filter role, the selectable values
	// (distinct, sorted, missing excluded). Filters echoes the current
	// selections.
	FilterOptions map[string][]string `json:"filter_options"`
	Filters       map[string][]string `json:"filters"`

	TotalRows    int `json:"total_rows"`
	FilteredRows int `json:"filtered_rows"`

	KPIs     KPISnapshot `json:"kpis"`
	Insights []string    `json:"insights"`
	Charts   ChartData   `json:"charts"`
	Preview  Preview     `json:"preview"`

	Theme           string `json:"theme"`
	ShowFullPreview bool   `json:"show_full_preview"`
}

// Render executes the whole pipeline for one session: filter, resolve
// revenue, aggregate, and assemble the frame.
func Render(s *session.Session, previewRows int) ViewModel {
	tbl := s.Table
	view := ApplyFilters(s)
	rev := ResolveRevenue(tbl, s.Mapping)
	kpis := ComputeKPIs(view, rev, s.Mapping)

	vm := ViewModel{
		Columns:       tbl.Columns,
		ColumnKinds:   dataset.SniffKinds(tbl),
		Mapping:       make(map[string]string),
		FilterOptions: make(map[string][]string),
		Filters:       make(map[string][]string),
		TotalRows:     tbl.NumRows(),
		FilteredRows:  view.NumRows(),
		KPIs:          kpis,
		Insights:      GenerateInsights(view, rev, s.Mapping, kpis),
		Charts:        PrepareCharts(view, rev, s.Mapping),
		Preview:       buildPreview(view, s.ShowFullPreview, previewRows),
		Theme:         string(s.Theme),
		ShowFullPreview: s.ShowFullPreview,
	}
	for _, role := range schema.MappedRoles {
		vm.Roles = append(vm.Roles, string(role))
		if col, ok := s.Mapping.Column(role); ok {
			vm.Mapping[string(role)] = col
		}
	}
	for _, role := range schema.FilterRoles {
		if col, ok := s.Mapping.Column(role); ok && tbl.HasColumn(col) {
			vm.FilterOptions[string(role)] = tbl.DistinctValues(col)
		}
		if chosen := s.FilterValues(role); len(chosen) > 0 {
			vm.Filters[string(role)] = chosen
		}
	}
	return vm
}

func buildPreview(v View, full bool, limit int) Preview {
	if limit <= 0 {
		limit = 10
	}
	n := v.NumRows()
	truncated := false
	if !full && n > limit {
		n = limit
		truncated = true
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = v.Table.Rows[v.Rows[i]]
	}
	return Preview{Columns: v.Table.Columns, Rows: rows, Truncated: truncated}
}
