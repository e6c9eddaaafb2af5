package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/currency"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

var (
	reportFlags  rangeFlags
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show hours and pay per employee (default this week)",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportFlags.register(reportCmd)
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	svc := app.svc
	rng, err := reportFlags.resolve(svc.Today(), true)
	if err != nil {
		return err
	}
	status, err := reportFlags.approval()
	if err != nil {
		return err
	}

	res, err := svc.Report(cmd.Context(), rng, reportFlags.employee, status)
	if err != nil {
		return err
	}
	if res.FromCache {
		fmt.Fprintln(os.Stderr, "Warning: store unreachable, report built from the local cache.")
	}
	printWarnings(os.Stderr, res.Warnings)
	return writeReport(os.Stdout, reportFormat, res)
}

type reportLine struct {
	Employee model.Employee `json:"employee"`
	Totals   model.Totals   `json:"totals"`
}

// writeReport prints the per-employee totals of res.
func writeReport(w io.Writer, format string, res report.Result) error {
	grand := report.GrandTotals(res.Reports)

	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"employee_id", "employee", "days_worked", "regular_hours", "extra_hours", "total_hours", "total_pay"})
		for _, r := range res.Reports {
			_ = cw.Write(totalsRecord(r.Employee.ID, r.Employee.Name, r.Totals))
		}
		_ = cw.Write(totalsRecord("", "Total", grand))
		cw.Flush()
		return cw.Error()
	case "json":
		lines := make([]reportLine, 0, len(res.Reports))
		for _, r := range res.Reports {
			lines = append(lines, reportLine{Employee: r.Employee, Totals: r.Totals})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Range     report.Range `json:"range"`
			Employees []reportLine `json:"employees"`
			Total     model.Totals `json:"total"`
		}{res.Range, lines, grand})
	case "md":
		period := res.Range.Start.Format(timecalc.DisplayDateLayout) + " a " + res.Range.End.Format(timecalc.DisplayDateLayout)
		if res.Range == weekOf(res.Range.Start) {
			fmt.Fprintf(w, "Semana %s: %s\n", timecalc.ISOWeekLabel(res.Range.Start.In(time.UTC)), period)
		} else {
			fmt.Fprintf(w, "Período %s\n", period)
		}
		fmt.Fprintln(w, "------------------------------------------------------------")
		for _, r := range res.Reports {
			name := r.Employee.Name
			if name == "" {
				name = r.Employee.ID
			}
			fmt.Fprintln(w, totalsLine(name, r.Totals))
		}
		fmt.Fprintln(w, "------------------------------------------------------------")
		fmt.Fprintln(w, totalsLine("Total", grand))
		return nil
	}
	return usagef("unknown report format %q (want md, csv or json)", format)
}

func totalsRecord(id, name string, t model.Totals) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	return []string{id, name, strconv.Itoa(t.DaysWorked), f(t.RegularHours), f(t.ExtraHours), f(t.TotalHours), f(t.TotalPay)}
}

func totalsLine(label string, t model.Totals) string {
	return fmt.Sprintf("%-20s%3d dia(s)  %s  +%s  %s",
		label, t.DaysWorked, timecalc.FormatHours(t.TotalHours), timecalc.FormatHours(t.ExtraHours), currency.Format(t.TotalPay))
}
