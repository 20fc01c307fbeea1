package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"

	"smartdash/internal/pipeline"
)

// PDFFilename is the fixed download name for the summary report.
const PDFFilename = "SmartDash_Report.pdf"

// ReportOptions controls presentation details of the PDF.
type ReportOptions struct {
	// Currency prefixes monetary KPI values, e.g. "₹".
	Currency string
	// Now stamps the report header; zero means time.Now.
	Now time.Time
}

// KPIRows formats the snapshot into labeled display rows, shared by the PDF
// table and the CLI report. Monetary values get thousands separators; when
// revenue is unavailable they degrade to "unavailable".
func KPIRows(k pipeline.KPISnapshot, currency string) [][2]string {
	revenue := "unavailable"
	avg := "unavailable"
	if k.RevenueAvailable {
		revenue = currency + humanize.Comma(int64(math.Round(k.TotalRevenue)))
		avg = currency + humanize.FormatFloat("#,###.##", k.AvgOrderValue)
	}
	units := pipeline.Sentinel
	if k.UnitsAvailable {
		units = humanize.Comma(int64(math.Round(k.TotalUnits)))
	}
	return [][2]string{
		{"Total Revenue", revenue},
		{"Units Sold", units},
		{"Avg Order Value", avg},
		{"Top Product", k.TopProduct},
		{"Top Region", k.TopRegion},
	}
}

// WritePDF renders the one-page summary: title, generation timestamp, the
// KPI table, and the insight bullets from the current filtered view.
func WritePDF(w io.Writer, vm pipeline.ViewModel, opts ReportOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("SmartDash Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "SmartDash Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Generated %s · %d of %d rows",
		now.Format("02 Jan 2006 15:04"), vm.FilteredRows, vm.TotalRows)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Key Metrics", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range KPIRows(vm.KPIs, opts.Currency) {
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(60, 8, row[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(110, 8, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Quick Insights", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if len(vm.Insights) == 0 {
		pdf.CellFormat(0, 7, "No insights available for the current view.", "", 1, "L", false, 0, "")
	}
	for _, line := range vm.Insights {
		pdf.CellFormat(6, 7, tr("•"), "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 7, tr(line), "", "L", false)
	}
	pdf.Ln(6)

	// Charts are not rasterized; the report only names what the dashboard
	// shows.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Dashboard Charts", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, name := range []string{"Monthly Revenue Trend", "Top 5 Products by Revenue", "Revenue by Region"} {
		pdf.CellFormat(6, 7, tr("•"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, name, "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
