package normalizer_test

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/normalizer"
)

func at(day, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", day+" "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func entry(entryClock, exitClock string, daily float64, extra model.ExtraDuration, rate float64) model.RawTimeEntry {
	e := model.RawTimeEntry{
		ID:           "e-1",
		Employee:     model.Employee{ID: "emp-1", Name: "Ana"},
		Date:         model.NewDate(2025, time.November, 3),
		EntryInstant: at("2025-11-03", entryClock),
		DailyRate:    ptr(daily),
		Extra:        extra,
		ExtraRate:    rate,
		Approval:     model.StatePending,
	}
	if exitClock != "" {
		e.ExitInstant = ptr(at("2025-11-03", exitClock))
	}
	return e
}

func TestNormalizeWorkedHours(t *testing.T) {
	tests := []struct {
		name       string
		entry      time.Time
		exit       *time.Time
		wantWorked float64
	}{
		{"open shift", at("2025-11-03", "09:00"), nil, 0},
		{"same day", at("2025-11-03", "09:00"), ptr(at("2025-11-03", "17:30")), 8.5},
		{"cross midnight", at("2025-11-03", "22:00"), ptr(at("2025-11-04", "02:00")), 4},
		{"exit clock earlier, same date", at("2025-11-03", "22:00"), ptr(at("2025-11-03", "02:00")), 4},
		{"seconds ignored", at("2025-11-03", "09:00").Add(59 * time.Second), ptr(at("2025-11-03", "10:00")), 1},
		{"identical instants", at("2025-11-03", "09:00"), ptr(at("2025-11-03", "09:00")), 0},
		{"same clock next day", at("2025-11-03", "09:00"), ptr(at("2025-11-04", "09:00")), 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := entry("09:00", "", 100, model.ExtraDuration{}, 0)
			raw.EntryInstant = tt.entry
			raw.ExitInstant = tt.exit
			got, err := normalizer.Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.WorkedHours != tt.wantWorked {
				t.Errorf("WorkedHours = %v, want %v", got.WorkedHours, tt.wantWorked)
			}
		})
	}
}

func TestNormalizeOpenShiftTotalIsExtra(t *testing.T) {
	got, err := normalizer.Normalize(entry("09:00", "", 100, model.ClockExtra(1, 30), 20))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.WorkedHours != 0 || got.TotalHours != got.ExtraHours {
		t.Errorf("open shift: worked=%v total=%v extra=%v", got.WorkedHours, got.TotalHours, got.ExtraHours)
	}
}

func TestNormalizeExtraHours(t *testing.T) {
	tests := []struct {
		name          string
		extra         model.ExtraDuration
		want          float64
		wantDefaulted bool
	}{
		{"clock", model.ParseExtraDuration("01:30"), 1.5, false},
		{"zero clock", model.ParseExtraDuration("00:00"), 0, false},
		{"absent", model.ExtraDuration{}, 0, false},
		{"decimal", model.DecimalExtra(2.25), 2.25, false},
		{"malformed", model.ParseExtraDuration("soon"), 0, true},
		{"negative", model.DecimalExtra(-1), 0, true},
		{"nan", model.DecimalExtra(math.NaN()), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizer.Normalize(entry("09:00", "17:00", 100, tt.extra, 20))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.ExtraHours != tt.want {
				t.Errorf("ExtraHours = %v, want %v", got.ExtraHours, tt.want)
			}
			if got.TotalHours != 8+tt.want {
				t.Errorf("TotalHours = %v, want %v", got.TotalHours, 8+tt.want)
			}
			defaulted := len(got.Defaulted) == 1 && got.Defaulted[0] == normalizer.FieldExtra
			if defaulted != tt.wantDefaulted {
				t.Errorf("Defaulted = %v, wantDefaulted %v", got.Defaulted, tt.wantDefaulted)
			}
		})
	}
}

func TestNormalizeTotalPay(t *testing.T) {
	got, err := normalizer.Normalize(entry("09:00", "17:00", 100, model.DecimalExtra(1.5), 20))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.TotalPay != 130.00 {
		t.Errorf("TotalPay = %v, want 130.00", got.TotalPay)
	}

	got, err = normalizer.Normalize(entry("09:00", "17:00", 100, model.ClockExtra(0, 20), 10))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.TotalPay != 103.33 {
		t.Errorf("TotalPay = %v, want 103.33", got.TotalPay)
	}
}

func TestNormalizeNaNSafe(t *testing.T) {
	got, err := normalizer.Normalize(entry("09:00", "17:00", math.NaN(), model.DecimalExtra(1), math.Inf(1)))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.TotalPay != 0 {
		t.Errorf("TotalPay = %v, want 0", got.TotalPay)
	}
	want := []string{normalizer.FieldDailyRate, normalizer.FieldExtraRate}
	if !reflect.DeepEqual(got.Defaulted, want) {
		t.Errorf("Defaulted = %v, want %v", got.Defaulted, want)
	}
	if math.IsNaN(*got.DailyRate) || math.IsInf(got.ExtraRate, 0) {
		t.Error("normalized entry still carries non-finite rates")
	}
}

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*model.RawTimeEntry)
		field string
	}{
		{"missing employee", func(e *model.RawTimeEntry) { e.Employee.ID = "" }, normalizer.FieldEmployee},
		{"missing entry time", func(e *model.RawTimeEntry) { e.EntryInstant = time.Time{} }, normalizer.FieldEntryTime},
		{"missing daily rate", func(e *model.RawTimeEntry) { e.DailyRate = nil }, normalizer.FieldDailyRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := entry("09:00", "17:00", 100, model.ExtraDuration{}, 0)
			tt.mut(&raw)
			_, err := normalizer.Normalize(raw)
			if !errors.Is(err, normalizer.ErrInvalidEntry) {
				t.Fatalf("err = %v, want ErrInvalidEntry", err)
			}
			var verr *normalizer.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("ValidationError = %+v, want field %q", verr, tt.field)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := entry("22:15", "06:40", 150, model.ParseExtraDuration("01:10"), 30)
	a, errA := normalizer.Normalize(raw)
	b, errB := normalizer.Normalize(raw)
	if errA != nil || errB != nil {
		t.Fatalf("Normalize: %v, %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Normalize is not idempotent:\n%+v\n%+v", a, b)
	}
	if a.DailyRate == raw.DailyRate || a.ExitInstant == raw.ExitInstant {
		t.Error("normalized entry aliases the raw entry's pointers")
	}
}
