package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/export"
)

var (
	exportFlags  rangeFlags
	exportFormat string
	exportOutput string
	exportSheets bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the report as a document (default this week)",
	Long: `export renders the report of a range as xlsx, csv, html or json.
The file is written to the export directory as registros_<start>_a_<end>.<ext>;
--output - writes it to stdout instead.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.FormatXLSX), "Output format: xlsx, csv, html, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output directory, or - for stdout (default from config)")
	exportCmd.Flags().BoolVar(&exportSheets, "sheets", false, "Also append the rows to the configured Google Sheet")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := app.svc

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return usagef("--format: %v", err)
	}
	rng, err := exportFlags.resolve(svc.Today(), true)
	if err != nil {
		return err
	}
	status, err := exportFlags.approval()
	if err != nil {
		return err
	}

	res, err := svc.Report(ctx, rng, exportFlags.employee, status)
	if err != nil {
		return err
	}
	printWarnings(os.Stderr, res.Warnings)
	generatedAt := svc.Now()

	if exportOutput == "-" {
		if err := export.Render(os.Stdout, format, res, generatedAt); err != nil {
			return err
		}
	} else {
		dir := exportOutput
		if dir == "" {
			if dir, err = app.cfg.ExportDirectory(); err != nil {
				return err
			}
		}
		path, err := export.SaveFile(dir, format, res, generatedAt)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %s\n", path)
	}

	if !exportSheets {
		return nil
	}
	repo, err := openSheets(ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}
	if repo == nil {
		return usagef("--sheets: no Google Sheet configured (sheets.credentials_path, sheets.spreadsheet_id)")
	}
	rows := export.BuildTable(res.Reports, res.Range, generatedAt).Values()
	if err := repo.AppendRows(ctx, app.cfg.Sheets.Range, rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Appended %d rows to the Google Sheet\n", len(rows))
	return nil
}
