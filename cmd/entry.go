package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/currency"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// entryFlags describe one shift on the command line.
type entryFlags struct {
	employee  string
	name      string
	date      string
	in        string
	out       string
	dailyRate float64
	extra     string
	extraRate float64
	notes     string
	status    string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.employee, "employee", "", "Employee ID")
	cmd.Flags().StringVar(&f.name, "name", "", "Employee display name")
	cmd.Flags().StringVar(&f.date, "date", "", "Shift date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.in, "in", "", "Entry time HH:MM or timestamp")
	cmd.Flags().StringVar(&f.out, "out", "", "Exit time HH:MM or timestamp; earlier than --in means the next day")
	cmd.Flags().Float64Var(&f.dailyRate, "daily-rate", 0, "Pay for the shift")
	cmd.Flags().StringVar(&f.extra, "extra", "", "Extra hours as HH:MM or decimal hours")
	cmd.Flags().Float64Var(&f.extraRate, "extra-rate", 0, "Pay per extra hour")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&f.status, "status", "", "Approval state: pending, approved, rejected")
}

// apply copies the flags set on cmd onto e. Times are re-resolved when the
// date or either clock changed.
func (f *entryFlags) apply(cmd *cobra.Command, svc *timesheet.Service, e *model.RawTimeEntry) error {
	changed := cmd.Flags().Changed

	if changed("employee") {
		e.Employee.ID = f.employee
	}
	if changed("name") {
		e.Employee.Name = f.name
	}
	if changed("date") {
		d, err := model.ParseDate(f.date)
		if err != nil {
			return usagef("--date: %v", err)
		}
		e.Date = d
	}
	if e.Date.IsZero() {
		e.Date = svc.Today()
	}

	if changed("date") || changed("in") || changed("out") {
		in := f.in
		if !changed("in") && !e.EntryInstant.IsZero() {
			in = e.EntryInstant.In(svc.Location()).Format("15:04")
		}
		out := f.out
		if !changed("out") && !e.IsOpen() {
			out = e.ExitInstant.In(svc.Location()).Format("15:04")
		}
		entry, exit, err := svc.ShiftTimes(e.Date, in, out)
		if err != nil {
			return usagef("%v", err)
		}
		e.EntryInstant, e.ExitInstant = entry, exit
		if !changed("date") {
			e.Date = model.DateOf(entry.In(svc.Location()))
		}
	}

	if changed("daily-rate") {
		rate := f.dailyRate
		e.DailyRate = &rate
	}
	if changed("extra") {
		e.Extra = model.ParseExtraDuration(f.extra)
	}
	if changed("extra-rate") {
		e.ExtraRate = f.extraRate
	}
	if changed("notes") {
		e.Notes = f.notes
	}
	if changed("status") {
		st, err := model.ParseApprovalState(f.status)
		if err != nil {
			return usagef("--status: %v", err)
		}
		e.Approval = st
	}
	return nil
}

func printEntry(w io.Writer, n model.NormalizedTimeEntry) {
	name := n.Employee.Name
	if name == "" {
		name = n.Employee.ID
	}
	if n.ID != "" {
		fmt.Fprintf(w, "ID:        %s\n", n.ID)
	}
	fmt.Fprintf(w, "Employee:  %s\n", name)
	fmt.Fprintf(w, "Date:      %s\n", n.Date.Format(timecalc.DisplayDateLayout))
	fmt.Fprintf(w, "Shift:     %s – %s\n", timecalc.FormatClock(&n.EntryInstant), timecalc.FormatClock(n.ExitInstant))
	fmt.Fprintf(w, "Worked:    %s\n", timecalc.FormatHours(n.WorkedHours))
	fmt.Fprintf(w, "Extra:     %s\n", timecalc.FormatHours(n.ExtraHours))
	fmt.Fprintf(w, "Total:     %s\n", timecalc.FormatHours(n.TotalHours))
	fmt.Fprintf(w, "Pay:       %s\n", currency.Format(n.TotalPay))
	if n.Approval != "" {
		fmt.Fprintf(w, "Status:    %s\n", n.Approval)
	}
	if n.RejectionReason != "" {
		fmt.Fprintf(w, "Reason:    %s\n", n.RejectionReason)
	}
	if len(n.Defaulted) > 0 {
		fmt.Fprintf(w, "Defaulted: %s\n", strings.Join(n.Defaulted, ", "))
	}
}

var (
	addFlags   entryFlags
	addPreview bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a shift",
	Example: `  shiftpay add --employee ana --name Ana --date 2025-11-03 --in 09:00 --out 17:00 \
    --daily-rate 150 --extra 01:00 --extra-rate 30`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	svc := app.svc
	var e model.RawTimeEntry
	if err := addFlags.apply(cmd, svc, &e); err != nil {
		return err
	}
	if e.EntryInstant.IsZero() {
		return usagef("--in is required")
	}

	if addPreview {
		n, err := svc.Preview(e)
		if err != nil {
			return err
		}
		printEntry(os.Stdout, n)
		return nil
	}
	n, err := svc.Submit(cmd.Context(), e)
	if err != nil {
		return err
	}
	printEntry(os.Stdout, n)
	return nil
}

var editFlags entryFlags

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a recorded shift",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	svc := app.svc
	e, err := svc.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := editFlags.apply(cmd, svc, &e); err != nil {
		return err
	}
	n, err := svc.Submit(cmd.Context(), e)
	if err != nil {
		return err
	}
	printEntry(os.Stdout, n)
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded shift",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.svc.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a shift",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := app.svc.Approve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s is %s\n", e.ID, e.Approval)
		return nil
	},
}

var rejectReason string

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a shift with a reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := app.svc.Reject(cmd.Context(), args[0], rejectReason)
		if err != nil {
			return err
		}
		fmt.Printf("%s is %s: %s\n", e.ID, e.Approval, e.RejectionReason)
		return nil
	},
}

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List known employees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		employees, err := app.svc.Employees(cmd.Context())
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			fmt.Println("No employees found.")
		}
		for _, emp := range employees {
			fmt.Printf("%-28s %s\n", emp.ID, emp.Name)
		}
		return nil
	},
}

func init() {
	addFlags.register(addCmd)
	addCmd.Flags().BoolVar(&addPreview, "preview", false, "Show the computed totals without saving")
	editFlags.register(editCmd)
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Why the shift is rejected (required)")
}
