package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/export"
	"github.com/Tiliavir/shiftpay/internal/logger"
	"github.com/Tiliavir/shiftpay/internal/scheduler"
	"github.com/Tiliavir/shiftpay/internal/server/handlers"
	"github.com/Tiliavir/shiftpay/internal/server/router"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the weekly export schedule",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.cfg
	// The server logs requests, so it always runs at info level at least.
	baseLogger := app.logger
	if !verbose {
		l, err := logger.New(zap.InfoLevel)
		if err != nil {
			return err
		}
		baseLogger = l
		defer func() { _ = baseLogger.Sync() }()
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule.Enabled {
		sched, err := newScheduler(ctx, baseLogger)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return usagef("%v", err)
		}
		defer sched.Stop()
	}

	engine := router.New(handlers.New(app.svc, logger.Named(baseLogger, "handlers")), logger.Named(baseLogger, "router"))
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func newScheduler(ctx context.Context, log *zap.Logger) (*scheduler.Scheduler, error) {
	cfg := app.cfg
	format, err := export.ParseFormat(cfg.Schedule.Format)
	if err != nil {
		return nil, usagef("schedule.format: %v", err)
	}
	dir, err := cfg.ExportDirectory()
	if err != nil {
		return nil, err
	}

	opts := scheduler.Options{Cron: cfg.Schedule.Cron, Format: format, Dir: dir, SheetRange: cfg.Sheets.Range}
	repo, err := openSheets(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	// A nil *sheets.Repository must not become a non-nil RowAppender.
	if repo == nil {
		return scheduler.New(opts, app.svc, nil, logger.Named(log, "scheduler")), nil
	}
	return scheduler.New(opts, app.svc, repo, logger.Named(log, "scheduler")), nil
}
