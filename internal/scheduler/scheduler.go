package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/export"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// jobTimeout bounds a single weekly export.
const jobTimeout = 2 * time.Minute

// RowAppender receives the exported table rows, e.g. a Google Sheet.
type RowAppender interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]any) error
}

// Options configures the weekly export job.
type Options struct {
	Cron       string
	Format     export.Format
	Dir        string
	SheetRange string
}

// Scheduler manages the weekly export.
type Scheduler struct {
	cron   *cron.Cron
	svc    *timesheet.Service
	sheets RowAppender
	opts   Options
	logger *zap.Logger
}

// New creates a scheduler. sheets may be nil.
func New(opts Options, svc *timesheet.Service, sheets RowAppender, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(svc.Location())),
		svc:    svc,
		sheets: sheets,
		opts:   opts,
		logger: logger,
	}
}

// Start registers the export job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Cron, s.weeklyExport); err != nil {
		return fmt.Errorf("schedule weekly export %q: %w", s.opts.Cron, err)
	}
	s.logger.Info("starting scheduler", zap.String("cron", s.opts.Cron), zap.String("format", string(s.opts.Format)))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) weeklyExport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	path, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("weekly export failed", zap.Error(err))
		return
	}
	s.logger.Info("weekly export written", zap.String("path", path))
}

// PreviousWeek returns Monday to Sunday of the week before the one
// containing today.
func PreviousWeek(today model.CalendarDate) report.Range {
	monday, sunday := timecalc.WeekRange(today.AddDays(-7).In(time.UTC))
	return report.Range{Start: model.DateOf(monday), End: model.DateOf(sunday)}
}

// RunOnce exports the previous week to the export directory and, when a
// sheet is configured, appends the same rows to it.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	rng := PreviousWeek(s.svc.Today())
	res, err := s.svc.Report(ctx, rng, "", "")
	if err != nil {
		return "", err
	}

	generatedAt := s.svc.Now()
	path, err := export.SaveFile(s.opts.Dir, s.opts.Format, res, generatedAt)
	if err != nil {
		return "", err
	}

	if s.sheets != nil {
		rows := export.BuildTable(res.Reports, res.Range, generatedAt).Values()
		if err := s.sheets.AppendRows(ctx, s.opts.SheetRange, rows); err != nil {
			return path, fmt.Errorf("append to sheet: %w", err)
		}
		s.logger.Debug("weekly export appended to sheet", zap.Int("rows", len(rows)))
	}
	return path, nil
}
