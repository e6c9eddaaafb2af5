// Package normalizer turns a raw time entry into its computed hours and pay.
//
// Normalization is pure: it never touches a store, never logs and returns
// the same result for the same input.
package normalizer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// ErrInvalidEntry is wrapped by every ValidationError.
var ErrInvalidEntry = errors.New("invalid time entry")

// Field names reported in ValidationError and NormalizedTimeEntry.Defaulted.
const (
	FieldEmployee  = "employee"
	FieldEntryTime = "entryTime"
	FieldDailyRate = "dailyRate"
	FieldExtra     = "extraHours"
	FieldExtraRate = "extraRate"
)

// ValidationError reports a required field that makes an entry unusable.
type ValidationError struct {
	EntryID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("time entry: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("time entry %s: %s %s", e.EntryID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEntry }

// Validate checks the fields an entry cannot be normalized without.
func Validate(raw model.RawTimeEntry) error {
	switch {
	case raw.Employee.ID == "":
		return &ValidationError{EntryID: raw.ID, Field: FieldEmployee, Reason: "is missing"}
	case raw.EntryInstant.IsZero():
		return &ValidationError{EntryID: raw.ID, Field: FieldEntryTime, Reason: "is missing"}
	case raw.DailyRate == nil:
		return &ValidationError{EntryID: raw.ID, Field: FieldDailyRate, Reason: "is missing"}
	}
	return nil
}

// Normalize computes worked hours, extra hours, total hours and total pay.
// Unusable optional values fall back to 0 and are listed in Defaulted.
func Normalize(raw model.RawTimeEntry) (model.NormalizedTimeEntry, error) {
	if err := Validate(raw); err != nil {
		return model.NormalizedTimeEntry{}, err
	}

	var defaulted []string
	extra, ok := ExtraHours(raw.Extra)
	if !ok {
		defaulted = append(defaulted, FieldExtra)
	}
	daily, ok := amount(*raw.DailyRate)
	if !ok {
		defaulted = append(defaulted, FieldDailyRate)
	}
	rate, ok := amount(raw.ExtraRate)
	if !ok {
		defaulted = append(defaulted, FieldExtraRate)
	}

	// The embedded copy owns its pointers so callers can't alias the input.
	out := raw
	out.DailyRate = &daily
	out.ExtraRate = rate
	if raw.ExitInstant != nil {
		exit := *raw.ExitInstant
		out.ExitInstant = &exit
	}

	worked := WorkedHours(raw.EntryInstant, raw.ExitInstant)
	return model.NormalizedTimeEntry{
		RawTimeEntry: out,
		WorkedHours:  worked,
		ExtraHours:   extra,
		TotalHours:   worked + extra,
		TotalPay:     timecalc.Round2(daily + extra*rate),
		Defaulted:    defaulted,
	}, nil
}

// WorkedHours returns the hours between the clock times of entry and exit.
// Only hours and minutes count. An exit clock time at or before the entry
// clock time wraps past midnight; identical instants are a zero-length shift.
func WorkedHours(entry time.Time, exit *time.Time) float64 {
	if entry.IsZero() || exit == nil || exit.IsZero() || exit.Equal(entry) {
		return 0
	}
	in := timecalc.MinuteOfDay(entry)
	out := timecalc.MinuteOfDay(*exit)
	minutes := out - in
	if out <= in {
		minutes = timecalc.MinutesPerDay - in + out
	}
	return float64(minutes) / 60
}

// ExtraHours canonicalizes an extra duration to decimal hours. The boolean
// is false when the value was present but unusable and 0 was substituted.
func ExtraHours(e model.ExtraDuration) (float64, bool) {
	switch e.Kind {
	case model.ExtraNone:
		return 0, true
	case model.ExtraDecimal:
		return amount(e.Decimal)
	case model.ExtraClock:
		if e.Hours < 0 || e.Minutes < 0 || e.Minutes > 59 {
			return 0, false
		}
		return float64(e.Hours) + float64(e.Minutes)/60, true
	}
	return 0, false
}

// amount maps NaN, infinities and negative values to 0.
func amount(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
