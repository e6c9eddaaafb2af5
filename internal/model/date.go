package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and file format of a CalendarDate.
const DateLayout = "2006-01-02"

// CalendarDate is a civil day without time of day or zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// NewDate builds a CalendarDate, normalizing out-of-range days and months
// the same way time.Date does.
func NewDate(year int, month time.Month, day int) CalendarDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

func (d CalendarDate) IsZero() bool { return d == CalendarDate{} }

// In returns midnight of d in loc (UTC when loc is nil).
func (d CalendarDate) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Compare returns -1, 0 or +1.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d CalendarDate) Before(o CalendarDate) bool { return d.Compare(o) < 0 }
func (d CalendarDate) After(o CalendarDate) bool  { return d.Compare(o) > 0 }

// AddDays returns the date n days later (earlier when n is negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Format formats d with a time layout.
func (d CalendarDate) Format(layout string) string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(layout)
}

func (d CalendarDate) String() string { return d.Format(DateLayout) }

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = CalendarDate{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DateValue is a date as delivered by a store: either a plain calendar date
// or an instant. Stores canonicalize it once with Date before handing
// entries to the core.
type DateValue struct {
	date      CalendarDate
	instant   time.Time
	isInstant bool
}

func CalendarDateValue(d CalendarDate) DateValue { return DateValue{date: d} }

func InstantValue(t time.Time) DateValue { return DateValue{instant: t, isInstant: true} }

func (v DateValue) IsInstant() bool { return v.isInstant }

// Instant returns the instant of v; calendar dates map to midnight in loc.
func (v DateValue) Instant(loc *time.Location) time.Time {
	if v.isInstant {
		return v.instant
	}
	return v.date.In(loc)
}

// Date returns the calendar day of v. Instants are read in loc (UTC when nil).
func (v DateValue) Date(loc *time.Location) CalendarDate {
	if !v.isInstant {
		return v.date
	}
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(v.instant.In(loc))
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseDateValue accepts YYYY-MM-DD or an ISO-8601 timestamp. Timestamps
// without a zone are taken as UTC.
func ParseDateValue(s string) (DateValue, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateValue{}, fmt.Errorf("empty date value")
	}
	if len(s) == len(DateLayout) {
		d, err := ParseDate(s)
		if err != nil {
			return DateValue{}, err
		}
		return CalendarDateValue(d), nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return InstantValue(t), nil
		}
	}
	return DateValue{}, fmt.Errorf("cannot parse date value %q", s)
}
