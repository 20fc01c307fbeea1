// Package dataset holds the raw uploaded table and the type-coercion rules
// applied to mapped columns.
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Table is an uploaded tabular file: ordered columns with unique names and
// rows of string cells in upload order. Rows are padded to the column count
// at load time, so cell access never goes out of range.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	colIndex map[string]int
}

// NewTable builds a table from pre-parsed records under the same invariants
// as file ingestion: unique trimmed column names, rows padded to the column
// count. It serves ingestion paths that bypass the CSV/XLSX readers, such as
// database loads.
func NewTable(name string, columns []string, records [][]string) (*Table, error) {
	cols := make([]string, len(columns))
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		c = strings.TrimSpace(c)
		cols[i] = c
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrUnreadable, c)
		}
		seen[c] = struct{}{}
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = normalizeRow(rec, len(cols))
	}
	return newTable(name, cols, rows), nil
}

func newTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows}
	t.colIndex = make(map[string]int, len(columns))
	for i, c := range columns {
		t.colIndex[c] = i
	}
	return t
}

// ColumnIndex returns the position of col, or -1 if the table has no such
// column.
func (t *Table) ColumnIndex(col string) int {
	if i, ok := t.colIndex[col]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	return t.ColumnIndex(col) >= 0
}

// Cell returns the raw cell at (row, col name). Missing columns yield "".
func (t *Table) Cell(row int, col string) string {
	i := t.ColumnIndex(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// DistinctValues returns the sorted distinct non-empty values of col. It
// feeds the filter selector option lists.
func (t *Table) DistinctValues(col string) []string {
	i := t.ColumnIndex(col)
	if i < 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		v := row[i]
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
