package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/currency"
)

var stopAt string

var stopCmd = &cobra.Command{
	Use:   "stop <employee-id>",
	Short: "Clock out: close the open shift of an employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopAt, "at", "", "Clock-out time HH:MM today (default now)")
}

func runStop(cmd *cobra.Command, args []string) error {
	svc := app.svc

	var at time.Time
	if stopAt != "" {
		in, _, err := svc.ShiftTimes(svc.Today(), stopAt, "")
		if err != nil {
			return usagef("--at: %v", err)
		}
		at = in
	}

	closed, err := svc.ClockOut(cmd.Context(), args[0], at)
	if err != nil {
		return err
	}

	elapsed := int64(closed.ExitInstant.Sub(closed.EntryInstant).Seconds())
	fmt.Printf("Stopped shift for %q. Elapsed: %s. Pay: %s\n",
		args[0], formatElapsed(elapsed), currency.Format(closed.TotalPay))
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
