// Package export serializes the current filtered view and KPI snapshot:
// a delimited download of the data and a fixed-layout PDF summary report.
// Both always work from filtered state, never the raw upload.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"smartdash/internal/dataset"
	"smartdash/internal/pipeline"
	"smartdash/internal/schema"
)

// CSVFilename is the fixed download name for the delimited export.
const CSVFilename = "filtered_sales.csv"

// WriteCSV serializes every column of the filtered view, in original column
// order, with a header row. Cells belonging to coerced columns (the mapped
// date and numeric roles) are written in canonical form so that re-parsing
// the file under the same coercion rules reproduces the view's values;
// everything else passes through verbatim.
func WriteCSV(w io.Writer, view pipeline.View, m schema.Mapping) error {
	tbl := view.Table

	dateCols := make(map[int]bool)
	numCols := make(map[int]bool)
	if col, ok := m.Column(schema.RoleDate); ok {
		if i := tbl.ColumnIndex(col); i >= 0 {
			dateCols[i] = true
		}
	}
	for _, role := range []schema.Role{schema.RoleQuantity, schema.RolePrice, schema.RoleRevenue} {
		if col, ok := m.Column(role); ok {
			if i := tbl.ColumnIndex(col); i >= 0 {
				numCols[i] = true
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(tbl.Columns))
	for _, row := range view.Rows {
		for i, cell := range tbl.Rows[row] {
			record[i] = cell
			switch {
			case dateCols[i]:
				if d, ok := dataset.ParseDate(cell); ok {
					record[i] = d.Format("2006-01-02")
				}
			case numCols[i]:
				if f, ok := dataset.ParseFloat(cell); ok {
					record[i] = strconv.FormatFloat(f, 'f', -1, 64)
				}
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
