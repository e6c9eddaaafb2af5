package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/currency"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

var listFlags rangeFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries (default today)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listFlags.register(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	svc := app.svc
	_, q, err := listFlags.query(svc.Today(), false)
	if err != nil {
		return err
	}

	entries, warnings, err := svc.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	printList(os.Stdout, entries)
	printWarnings(os.Stderr, warnings)
	return nil
}

// printList groups entries by date and prints them.
func printList(w io.Writer, entries []model.NormalizedTimeEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	var currentDay model.CalendarDate
	for _, e := range entries {
		if e.Date != currentDay {
			fmt.Fprintln(w, e.Date.Format(timecalc.DisplayDateLayout))
			currentDay = e.Date
		}

		name := e.Employee.Name
		if name == "" {
			name = e.Employee.ID
		}
		startStr := timecalc.FormatClock(&e.EntryInstant)
		endStr := "open"
		if !e.IsOpen() {
			endStr = timecalc.FormatClock(e.ExitInstant)
		}
		extra := ""
		if e.ExtraHours != 0 {
			extra = " +" + timecalc.FormatHours(e.ExtraHours)
		}
		notes := ""
		if e.Notes != "" {
			notes = "  " + e.Notes
		}

		fmt.Fprintf(w, "  %s–%s  %-20s %s%s  %s  [%s]  %s%s\n",
			startStr, endStr, name, timecalc.FormatHours(e.WorkedHours), extra,
			currency.Format(e.TotalPay), e.Approval, e.ID, notes)
	}
}

func printWarnings(w io.Writer, warnings []report.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
}
