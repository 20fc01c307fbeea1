package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateFormats is tried in order; day-before-month layouts come first so
// ambiguous numeric dates resolve day-first.
var dateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"01/02/2006", // month-first fallback for dates with day > 12
}

var currencyPattern = regexp.MustCompile(`[\$€£¥₹,\s]`)

// ParseDate parses a cell as a calendar date, preferring day-first layouts.
// Unparseable cells report ok=false and are treated as missing downstream.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseFloat parses a cell as a floating-point number after stripping
// currency symbols, thousands separators and whitespace. Unparseable cells
// report ok=false.
func ParseFloat(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	s = currencyPattern.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// DateColumn is a coerced date column: Valid[i] is false where the raw
// cell failed to parse.
type DateColumn struct {
	Values []time.Time
	Valid  []bool
}

// FloatColumn is a coerced numeric column with the same missing scheme.
type FloatColumn struct {
	Values []float64
	Valid  []bool
}

// Sum adds the valid values; missing cells contribute zero.
func (c FloatColumn) Sum() float64 {
	var total float64
	for i, v := range c.Values {
		if c.Valid[i] {
			total += v
		}
	}
	return total
}

// CoerceDates coerces col for every row. ok is false when the table has no
// such column; individual cells degrade to missing, never to an error.
func CoerceDates(t *Table, col string) (DateColumn, bool) {
	idx := t.ColumnIndex(col)
	if idx < 0 {
		return DateColumn{}, false
	}
	out := DateColumn{
		Values: make([]time.Time, len(t.Rows)),
		Valid:  make([]bool, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Values[i], out.Valid[i] = ParseDate(row[idx])
	}
	return out, true
}

// CoerceFloats coerces col for every row under the same rules.
func CoerceFloats(t *Table, col string) (FloatColumn, bool) {
	idx := t.ColumnIndex(col)
	if idx < 0 {
		return FloatColumn{}, false
	}
	out := FloatColumn{
		Values: make([]float64, len(t.Rows)),
		Valid:  make([]bool, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Values[i], out.Valid[i] = ParseFloat(row[idx])
	}
	return out, true
}
