package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

var (
	startName      string
	startDailyRate float64
	startExtraRate float64
	startNotes     string
	startAt        string
)

var startCmd = &cobra.Command{
	Use:   "start <employee-id>",
	Short: "Clock in: open a shift for an employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&startName, "name", "", "Employee display name")
	startCmd.Flags().Float64Var(&startDailyRate, "daily-rate", 0, "Pay for the shift (required)")
	startCmd.Flags().Float64Var(&startExtraRate, "extra-rate", 0, "Pay per extra hour")
	startCmd.Flags().StringVar(&startNotes, "notes", "", "Optional notes")
	startCmd.Flags().StringVar(&startAt, "at", "", "Clock-in time HH:MM today (default now)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("daily-rate") {
		return usagef("--daily-rate is required")
	}
	ctx := cmd.Context()
	svc := app.svc

	entry := model.RawTimeEntry{
		Employee:  model.Employee{ID: args[0], Name: startName},
		DailyRate: &startDailyRate,
		ExtraRate: startExtraRate,
		Notes:     startNotes,
	}
	if startAt != "" {
		in, _, err := svc.ShiftTimes(svc.Today(), startAt, "")
		if err != nil {
			return usagef("--at: %v", err)
		}
		entry.EntryInstant = in
	}

	created, err := svc.ClockIn(ctx, entry)
	if errors.Is(err, timesheet.ErrShiftOpen) {
		// Close the forgotten shift where the new one starts.
		fmt.Fprintf(os.Stderr, "Warning: auto-stopping open shift %s started %s\n",
			created.ID, created.EntryInstant.In(svc.Location()).Format("02/01 15:04"))
		if _, err := svc.ClockOut(ctx, args[0], entry.EntryInstant); err != nil {
			return err
		}
		created, err = svc.ClockIn(ctx, entry)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Started shift for %q at %s\n", args[0], created.EntryInstant.In(svc.Location()).Format("15:04"))
	return nil
}
