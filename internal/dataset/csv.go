package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnreadable wraps parse failures that make the whole upload unusable.
// Handlers turn it into a blocking error for the user; everything past this
// point degrades per-cell instead.
var ErrUnreadable = errors.New("input unreadable")

// LoadCSV parses comma-separated text into a Table. The delimiter falls back
// to semicolon when the header reads as a single semicolon-joined field.
// Malformed data rows are skipped; an unreadable header fails the load.
func LoadCSV(r io.Reader, name string) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	t, err := parseCSV(raw, ',', name)
	if err == nil && len(t.Columns) == 1 && strings.Contains(t.Columns[0], ";") {
		// Whole header landed in one field: retry with semicolons.
		if retry, rerr := parseCSV(raw, ';', name); rerr == nil {
			return retry, nil
		}
	}
	if err != nil {
		// Retry with semicolons before giving up, mirroring messy
		// regional exports.
		if retry, rerr := parseCSV(raw, ';', name); rerr == nil {
			return retry, nil
		}
		return nil, err
	}
	return t, nil
}

func parseCSV(raw []byte, comma rune, name string) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrUnreadable, err)
	}
	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		columns[i] = h
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrUnreadable, h)
		}
		seen[h] = struct{}{}
	}

	ncol := len(columns)
	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep going on malformed rows.
			continue
		}
		rows = append(rows, normalizeRow(rec, ncol))
	}
	return newTable(name, columns, rows), nil
}

func normalizeRow(rec []string, ncol int) []string {
	row := make([]string, ncol)
	for i := 0; i < ncol && i < len(rec); i++ {
		row[i] = strings.TrimSpace(rec[i])
	}
	return row
}
