package dataset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestLoadCSVBasic(t *testing.T) {
	t.Parallel()

	in := "Date,Product,Region,Sales Amount\n" +
		"2024-01-05,Widget,North,100\n" +
		"2024-01-20,Widget,South,50\n" +
		"2024-02-01,Gadget,North,200\n"
	tbl, err := LoadCSV(strings.NewReader(in), "sales.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tbl.NumRows(); got != 3 {
		t.Fatalf("rows got %d want 3", got)
	}
	if got := tbl.Cell(2, "Product"); got != "Gadget" {
		t.Fatalf("cell got %q want Gadget", got)
	}
	if idx := tbl.ColumnIndex("Sales Amount"); idx != 3 {
		t.Fatalf("column index got %d want 3", idx)
	}
}

func TestLoadCSVSemicolonFallback(t *testing.T) {
	t.Parallel()

	in := "date;product;amount\n2024-01-05;Widget;100\n"
	tbl, err := LoadCSV(strings.NewReader(in), "sales.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Columns) != 3 {
		t.Fatalf("columns got %v want 3 semicolon-split columns", tbl.Columns)
	}
	if got := tbl.Cell(0, "product"); got != "Widget" {
		t.Fatalf("cell got %q want Widget", got)
	}
}

func TestLoadCSVShortRowsPadded(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2\n"
	tbl, err := LoadCSV(strings.NewReader(in), "x.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tbl.Cell(0, "c"); got != "" {
		t.Fatalf("padded cell got %q want empty", got)
	}
}

func TestLoadCSVDuplicateColumnRejected(t *testing.T) {
	t.Parallel()

	if _, err := LoadCSV(strings.NewReader("a,a\n1,2\n"), "x.csv"); err == nil {
		t.Fatalf("expected duplicate-column error, got nil")
	}
}

func writeWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestLoadXLSXMatchesCSVShape(t *testing.T) {
	t.Parallel()

	raw := writeWorkbook(t, [][]interface{}{
		{"Date", "Product", "Sales Amount"},
		{"2024-01-05", "Widget", "100"},
		{"2024-01-06", "Gadget"}, // short row, must pad like the CSV path
	})
	tbl, err := LoadXLSX(bytes.NewReader(raw), "sales.xlsx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Columns) != 3 || tbl.Columns[2] != "Sales Amount" {
		t.Fatalf("columns got %v", tbl.Columns)
	}
	if got := tbl.NumRows(); got != 2 {
		t.Fatalf("rows got %d want 2", got)
	}
	if got := tbl.Cell(0, "Sales Amount"); got != "100" {
		t.Fatalf("cell got %q want 100", got)
	}
	if got := tbl.Cell(1, "Sales Amount"); got != "" {
		t.Fatalf("padded cell got %q want empty", got)
	}
}

func TestLoadXLSXDuplicateColumnRejected(t *testing.T) {
	t.Parallel()

	raw := writeWorkbook(t, [][]interface{}{
		{"Amount", "Amount"},
		{"1", "2"},
	})
	if _, err := LoadXLSX(bytes.NewReader(raw), "x.xlsx"); err == nil {
		t.Fatalf("expected duplicate-column error, got nil")
	}
}

func TestIsXLSX(t *testing.T) {
	t.Parallel()

	if !IsXLSX("Sales.XLSX") || !IsXLSX("book.xlsm") {
		t.Fatalf("workbook extensions must be recognized")
	}
	if IsXLSX("sales.csv") {
		t.Fatalf("csv must not be treated as a workbook")
	}
}

func TestDistinctValuesSortedWithoutMissing(t *testing.T) {
	t.Parallel()

	in := "region\nSouth\n\nNorth\nSouth\n"
	tbl, err := LoadCSV(strings.NewReader(in), "x.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := tbl.DistinctValues("region")
	if len(got) != 2 || got[0] != "North" || got[1] != "South" {
		t.Fatalf("distinct got %v want [North South]", got)
	}
}

func TestParseDateDayFirst(t *testing.T) {
	t.Parallel()

	d, ok := ParseDate("05/01/2024")
	if !ok {
		t.Fatalf("expected parse of 05/01/2024")
	}
	if d.Day() != 5 || d.Month() != time.January {
		t.Fatalf("got %v, want 5 January (day-first)", d)
	}
	if _, ok := ParseDate("not a date"); ok {
		t.Fatalf("garbage must be missing, not a date")
	}
}

func TestParseDateISO(t *testing.T) {
	t.Parallel()

	d, ok := ParseDate("2024-02-01")
	if !ok || d.Month() != time.February || d.Day() != 1 {
		t.Fatalf("got %v ok=%v, want 2024-02-01", d, ok)
	}
}

func TestParseFloatStripsCurrencyAndSeparators(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"100", 100, true},
		{"1,250.75", 1250.75, true},
		{"₹ 2,000", 2000, true},
		{"$45.50", 45.5, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseFloat(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseFloat(%q) got %v ok=%v, want %v ok=%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestCoerceFloatsMissingContributeZero(t *testing.T) {
	t.Parallel()

	in := "amount\n100\noops\n50\n"
	tbl, err := LoadCSV(strings.NewReader(in), "x.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	col, ok := CoerceFloats(tbl, "amount")
	if !ok {
		t.Fatalf("column missing")
	}
	if col.Valid[1] {
		t.Fatalf("unparseable cell must be missing")
	}
	if got := col.Sum(); got != 150 {
		t.Fatalf("sum got %v want 150", got)
	}
}

func TestSniffKinds(t *testing.T) {
	t.Parallel()

	in := "when,how_much,who\n2024-01-05,12.5,Asha\n2024-01-06,3,Priya\n"
	tbl, err := LoadCSV(strings.NewReader(in), "x.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	kinds := SniffKinds(tbl)
	if kinds["when"] != KindDate {
		t.Fatalf("when got %s want date", kinds["when"])
	}
	if kinds["how_much"] != KindNumeric {
		t.Fatalf("how_much got %s want numeric", kinds["how_much"])
	}
	if kinds["who"] != KindCategorical {
		t.Fatalf("who got %s want categorical", kinds["who"])
	}
}
