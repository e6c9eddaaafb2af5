package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/config"
	"github.com/Tiliavir/shiftpay/internal/logger"
	"github.com/Tiliavir/shiftpay/internal/normalizer"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

var (
	configPath string
	verbose    bool
)

// app is the state shared by commands, built before each run.
var app struct {
	cfg    config.Config
	logger *zap.Logger
	svc    *timesheet.Service
	close  func()
}

var rootCmd = &cobra.Command{
	Use:   "shiftpay",
	Short: "shiftpay – shift hours and pay reports",
	Long: `shiftpay records employee shifts and turns them into hour and pay
reports. Entries live in local JSON files under ~/.shiftpay/ or in a remote
time-entry API, MongoDB or MySQL, selected in ~/.shiftpay/config.json.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if app.close != nil {
			app.close()
		}
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	},
}

// usageError marks mistakes in how a command was called.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 for usage and input errors and 2 for storage failures.
func exitCode(err error) int {
	var uerr usageError
	switch {
	case errors.As(err, &uerr),
		errors.Is(err, normalizer.ErrInvalidEntry),
		errors.Is(err, report.ErrInvalidRange),
		errors.Is(err, timesheet.ErrNotFound),
		errors.Is(err, timesheet.ErrNoOpenShift),
		errors.Is(err, timesheet.ErrShiftOpen),
		errors.Is(err, timesheet.ErrExitBeforeEntry),
		errors.Is(err, timesheet.ErrReasonRequired):
		return 1
	}
	return 2
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		app.cfg, err = config.LoadFrom(configPath)
	} else {
		app.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := app.cfg.Validate(); err != nil {
		return usageError{msg: err.Error()}
	}

	app.logger, err = logger.ForCLI(verbose)
	if err != nil {
		return err
	}

	svc, closeFn, err := openService(cmd.Context(), app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.svc, app.close = svc, closeFn
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.shiftpay/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(employeesCmd)
	rootCmd.AddCommand(serveCmd)
}
