package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/shiftpay/internal/export"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/scheduler"
	"github.com/Tiliavir/shiftpay/internal/storage"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

type fakeSheet struct {
	sheetRange string
	rows       [][]any
	err        error
}

func (f *fakeSheet) AppendRows(_ context.Context, sheetRange string, rows [][]any) error {
	f.sheetRange = sheetRange
	f.rows = rows
	return f.err
}

func newService(t *testing.T) *timesheet.Service {
	t.Helper()
	// Wednesday 2025-11-12; the previous week is 2025-11-03 .. 2025-11-09.
	now := func() time.Time { return time.Date(2025, 11, 12, 20, 0, 0, 0, time.UTC) }
	svc := timesheet.NewService(storage.New(t.TempDir(), time.UTC), nil, timesheet.WithClock(now))

	daily := 150.0
	for _, d := range []model.CalendarDate{model.NewDate(2025, 11, 3), model.NewDate(2025, 11, 10)} {
		in, out, err := svc.ShiftTimes(d, "09:00", "17:00")
		if err != nil {
			t.Fatal(err)
		}
		raw := model.RawTimeEntry{
			Employee:     model.Employee{ID: "ana", Name: "Ana"},
			Date:         d,
			EntryInstant: in,
			ExitInstant:  out,
			DailyRate:    &daily,
		}
		if _, err := svc.Submit(context.Background(), raw); err != nil {
			t.Fatal(err)
		}
	}
	return svc
}

func TestPreviousWeek(t *testing.T) {
	tests := []struct {
		today      model.CalendarDate
		start, end string
	}{
		{model.NewDate(2025, 11, 12), "2025-11-03", "2025-11-09"},
		{model.NewDate(2025, 11, 10), "2025-11-03", "2025-11-09"},
		{model.NewDate(2025, 11, 16), "2025-11-03", "2025-11-09"},
		{model.NewDate(2026, 1, 2), "2025-12-22", "2025-12-28"},
	}
	for _, tt := range tests {
		rng := scheduler.PreviousWeek(tt.today)
		if rng.Start.String() != tt.start || rng.End.String() != tt.end {
			t.Errorf("PreviousWeek(%s) = %s, want %s to %s", tt.today, rng, tt.start, tt.end)
		}
	}
}

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	sheet := &fakeSheet{}
	opts := scheduler.Options{Cron: "0 20 * * 5", Format: export.FormatCSV, Dir: dir, SheetRange: "Registros!A1"}
	s := scheduler.New(opts, newService(t), sheet, nil)

	path, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if want := filepath.Join(dir, "registros_2025-11-03_a_2025-11-09.csv"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file: %v", err)
	}

	if sheet.sheetRange != "Registros!A1" {
		t.Errorf("sheet range = %q", sheet.sheetRange)
	}
	// Title, period, header, employee, one entry of the previous week, the
	// total and the footer.
	if len(sheet.rows) != 7 {
		t.Fatalf("rows = %d, want 7: %v", len(sheet.rows), sheet.rows)
	}
	if got := sheet.rows[5][7]; got != "R$ 150,00" {
		t.Errorf("total pay cell = %v", got)
	}
	if got := sheet.rows[6][0]; got != "Gerado em 12/11/2025 às 20:00" {
		t.Errorf("footer = %v", got)
	}
}

func TestRunOnceSheetError(t *testing.T) {
	boom := errors.New("quota exceeded")
	opts := scheduler.Options{Format: export.FormatJSON, Dir: t.TempDir()}
	s := scheduler.New(opts, newService(t), &fakeSheet{err: boom}, nil)

	path, err := s.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("RunOnce error = %v, want %v", err, boom)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("file should be kept when the sheet append fails: %v", statErr)
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	s := scheduler.New(scheduler.Options{Cron: "every friday"}, newService(t), nil, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start accepted an invalid cron expression")
	}
}

func TestStartStop(t *testing.T) {
	s := scheduler.New(scheduler.Options{Cron: "0 20 * * 5", Format: export.FormatCSV, Dir: t.TempDir()}, newService(t), nil, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
