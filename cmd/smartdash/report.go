package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"smartdash/internal/dataset"
	"smartdash/internal/export"
	"smartdash/internal/pipeline"
	"smartdash/internal/session"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Analyze a sales file and write the CSV and PDF exports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		var tbl *dataset.Table
		if dataset.IsXLSX(path) {
			tbl, err = dataset.LoadXLSX(f, filepath.Base(path))
		} else {
			tbl, err = dataset.LoadCSV(f, filepath.Base(path))
		}
		if err != nil {
			return err
		}

		inf, err := newInferencer()
		if err != nil {
			return err
		}
		store := session.NewStore(0)
		s := store.Create(tbl, inf.Infer(tbl.Columns))
		vm := pipeline.Render(s, cfg.PreviewRows)

		if err := os.MkdirAll(reportOut, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		csvPath := filepath.Join(reportOut, export.CSVFilename)
		cf, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", csvPath, err)
		}
		defer cf.Close()
		if err := export.WriteCSV(cf, pipeline.ApplyFilters(s), s.Mapping); err != nil {
			return err
		}

		pdfPath := filepath.Join(reportOut, export.PDFFilename)
		pf, err := os.Create(pdfPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", pdfPath, err)
		}
		defer pf.Close()
		if err := export.WritePDF(pf, vm, export.ReportOptions{Currency: cfg.CurrencySymbol}); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", tbl.Name, vm.TotalRows, len(vm.Columns))
		for _, row := range export.KPIRows(vm.KPIs, cfg.CurrencySymbol) {
			fmt.Fprintf(out, "  %-16s %s\n", row[0], row[1])
		}
		if len(vm.Insights) > 0 {
			fmt.Fprintln(out)
			for _, line := range vm.Insights {
				fmt.Fprintf(out, "  - %s\n", line)
			}
		}
		fmt.Fprintf(out, "\nWrote %s and %s\n", csvPath, pdfPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", ".", "output directory for the exports")
	rootCmd.AddCommand(reportCmd)
}
