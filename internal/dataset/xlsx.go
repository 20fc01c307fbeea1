package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the first sheet of a workbook into a Table: first row as
// header, remaining rows as string cells. Dashboard source data often
// arrives as a workbook export rather than plain CSV.
func LoadXLSX(r io.Reader, name string) (*Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadable, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrUnreadable, sheets[0])
	}

	columns := make([]string, len(rows[0]))
	seen := make(map[string]struct{}, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		columns[i] = h
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrUnreadable, h)
		}
		seen[h] = struct{}{}
	}

	ncol := len(columns)
	data := make([][]string, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		data = append(data, normalizeRow(rec, ncol))
	}
	return newTable(name, columns, data), nil
}

// IsXLSX reports whether filename looks like a workbook upload.
func IsXLSX(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}
