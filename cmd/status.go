package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/currency"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status [employee-id]",
	Short: "Show open shifts and today's totals",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := app.svc
	today := svc.Today()

	var employees []model.Employee
	if len(args) == 1 {
		employees = []model.Employee{{ID: args[0]}}
	} else {
		list, err := svc.Employees(ctx)
		if err != nil {
			return err
		}
		employees = list
	}

	running := 0
	for _, emp := range employees {
		open, err := svc.OpenShift(ctx, emp.ID)
		if err != nil {
			return err
		}
		if open == nil {
			continue
		}
		running++
		name := open.Employee.Name
		if name == "" {
			name = open.Employee.ID
		}
		elapsed := int64(svc.Now().Sub(open.EntryInstant).Seconds())
		fmt.Println("Running:")
		fmt.Printf("  Employee: %s\n", name)
		fmt.Printf("  Since: %s\n", open.EntryInstant.In(svc.Location()).Format("02/01 15:04"))
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
	}
	if running == 0 {
		fmt.Println("No open shift.")
	}

	q := model.Query{Start: today, End: today}
	if len(args) == 1 {
		q.EmployeeID = args[0]
	}
	entries, _, err := svc.List(ctx, q)
	if err != nil {
		return err
	}
	var hours, pay float64
	for _, e := range entries {
		hours += e.TotalHours
		pay += e.TotalPay
	}
	fmt.Printf("Today: %d shift(s), %s worked, %s.\n",
		len(entries), timecalc.FormatHours(timecalc.Round2(hours)), currency.Format(timecalc.Round2(pay)))
	return nil
}
