package cmd

import (
	"errors"
	"testing"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
)

func TestRangeFlagsResolve(t *testing.T) {
	today := model.NewDate(2025, 11, 5) // Wednesday

	tests := []struct {
		name        string
		flags       rangeFlags
		defaultWeek bool
		start, end  string
	}{
		{"default today", rangeFlags{}, false, "2025-11-05", "2025-11-05"},
		{"default week", rangeFlags{}, true, "2025-11-03", "2025-11-09"},
		{"today beats default week", rangeFlags{today: true}, true, "2025-11-05", "2025-11-05"},
		{"week", rangeFlags{week: true}, false, "2025-11-03", "2025-11-09"},
		{"date", rangeFlags{date: "2025-10-31"}, true, "2025-10-31", "2025-10-31"},
		{"from and to", rangeFlags{from: "2025-11-01", to: "2025-11-30"}, false, "2025-11-01", "2025-11-30"},
		{"from until today", rangeFlags{from: "2025-11-01"}, false, "2025-11-01", "2025-11-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := tt.flags.resolve(today, tt.defaultWeek)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if rng.Start.String() != tt.start || rng.End.String() != tt.end {
				t.Errorf("resolve = %s, want %s to %s", rng, tt.start, tt.end)
			}
		})
	}
}

func TestRangeFlagsErrors(t *testing.T) {
	today := model.NewDate(2025, 11, 5)

	if _, err := (&rangeFlags{from: "2025-11-09", to: "2025-11-03"}).resolve(today, false); !errors.Is(err, report.ErrInvalidRange) {
		t.Errorf("inverted range error = %v", err)
	}
	if _, err := (&rangeFlags{date: "05/11/2025"}).resolve(today, false); exitCode(err) != 1 {
		t.Errorf("bad date error = %v", err)
	}
	if _, _, err := (&rangeFlags{status: "maybe"}).query(today, false); exitCode(err) != 1 {
		t.Errorf("bad status error = %v", err)
	}

	_, q, err := (&rangeFlags{employee: "ana", status: "approved"}).query(today, true)
	if err != nil {
		t.Fatal(err)
	}
	if q.EmployeeID != "ana" || q.Status != model.StateApproved || q.Start.String() != "2025-11-03" {
		t.Errorf("query = %+v", q)
	}
}
