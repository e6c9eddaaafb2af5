// Package report aggregates normalized time entries into per-employee
// reports over a date range.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/normalizer"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// ErrInvalidRange is returned for a range whose start is after its end.
var ErrInvalidRange = errors.New("invalid report range")

// Range is an inclusive span of calendar days.
type Range struct {
	Start model.CalendarDate `json:"start"`
	End   model.CalendarDate `json:"end"`
}

// NewRange returns the range [start, end] or ErrInvalidRange.
func NewRange(start, end model.CalendarDate) (Range, error) {
	r := Range{Start: start, End: end}
	return r, r.Validate()
}

// Validate checks that both bounds are set and start is not after end.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: both start and end are required", ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Contains reports whether d falls within the range, bounds included.
func (r Range) Contains(d model.CalendarDate) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Bounds returns 00:00:00.000 of the first day and 23:59:59.999 of the last.
func (r Range) Bounds(loc *time.Location) (time.Time, time.Time) {
	return timecalc.StartOfDay(r.Start.In(loc)), timecalc.EndOfDay(r.End.In(loc))
}

// Query returns the store query for the range.
func (r Range) Query(employeeID string) model.Query {
	return model.Query{Start: r.Start, End: r.End, EmployeeID: employeeID}
}

func (r Range) String() string { return r.Start.String() + " to " + r.End.String() }

// WarningKind separates entries that were excluded from entries that were
// kept with defaulted values.
type WarningKind string

const (
	WarningExcluded  WarningKind = "excluded"
	WarningDefaulted WarningKind = "defaulted"
)

// Warning describes a data problem found while building a report.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	EntryID    string      `json:"entry_id"`
	EmployeeID string      `json:"employee_id,omitempty"`
	Reason     string      `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s entry %s: %s", w.Kind, w.EntryID, w.Reason)
}

// Result is the outcome of an aggregation: the reports that could be built
// and the warnings for everything that was skipped or defaulted.
type Result struct {
	Range    Range                  `json:"range"`
	Reports  []model.EmployeeReport `json:"reports"`
	Warnings []Warning              `json:"warnings"`

	// FromCache is set by callers that fell back to a local copy of the data.
	FromCache bool `json:"from_cache,omitempty"`
}

// Aggregate groups entries dated within rng by employee, optionally keeping
// only employeeID. Reports are sorted by employee name and entries by date.
// Entries without a date or employee are skipped with a warning.
func Aggregate(entries []model.NormalizedTimeEntry, rng Range, employeeID string) (Result, error) {
	if err := rng.Validate(); err != nil {
		return Result{}, err
	}

	var warnings []Warning
	groups := make(map[string][]model.NormalizedTimeEntry)
	for _, e := range entries {
		if reason := malformed(e.RawTimeEntry); reason != "" {
			warnings = append(warnings, Warning{Kind: WarningExcluded, EntryID: e.ID, EmployeeID: e.Employee.ID, Reason: reason})
			continue
		}
		if !rng.Contains(e.Date) || (employeeID != "" && e.Employee.ID != employeeID) {
			continue
		}
		groups[e.Employee.ID] = append(groups[e.Employee.ID], e)
		if len(e.Defaulted) > 0 {
			warnings = append(warnings, Warning{
				Kind:       WarningDefaulted,
				EntryID:    e.ID,
				EmployeeID: e.Employee.ID,
				Reason:     "defaulted to 0: " + strings.Join(e.Defaulted, ", "),
			})
		}
	}

	reports := make([]model.EmployeeReport, 0, len(groups))
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if c := group[i].Date.Compare(group[j].Date); c != 0 {
				return c < 0
			}
			return group[i].EntryInstant.Before(group[j].EntryInstant)
		})
		reports = append(reports, model.EmployeeReport{
			Employee: employeeOf(group),
			Entries:  group,
			Totals:   Summarize(group),
		})
	}
	sortByName(reports)

	return Result{Range: rng, Reports: reports, Warnings: warnings}, nil
}

// Build normalizes raws and aggregates the result. Entries failing
// validation are excluded with a warning when they could otherwise have
// belonged to the report.
func Build(raws []model.RawTimeEntry, rng Range, employeeID string) (Result, error) {
	if err := rng.Validate(); err != nil {
		return Result{}, err
	}

	var excluded []Warning
	entries := make([]model.NormalizedTimeEntry, 0, len(raws))
	for _, raw := range raws {
		n, err := normalizer.Normalize(raw)
		if err != nil {
			if candidate(raw, rng, employeeID) {
				excluded = append(excluded, Warning{Kind: WarningExcluded, EntryID: raw.ID, EmployeeID: raw.Employee.ID, Reason: err.Error()})
			}
			continue
		}
		entries = append(entries, n)
	}

	res, err := Aggregate(entries, rng, employeeID)
	if err != nil {
		return Result{}, err
	}
	res.Warnings = append(excluded, res.Warnings...)
	return res, nil
}

// Summarize sums entries at full precision and rounds each total once.
func Summarize(entries []model.NormalizedTimeEntry) model.Totals {
	var regular, extra, total, pay float64
	for _, e := range entries {
		regular += e.WorkedHours
		extra += e.ExtraHours
		total += e.TotalHours
		pay += e.TotalPay
	}
	return model.Totals{
		DaysWorked:   len(entries),
		RegularHours: timecalc.Round2(regular),
		ExtraHours:   timecalc.Round2(extra),
		TotalHours:   timecalc.Round2(total),
		TotalPay:     timecalc.Round2(pay),
	}
}

// GrandTotals sums every entry of every report.
func GrandTotals(reports []model.EmployeeReport) model.Totals {
	var all []model.NormalizedTimeEntry
	for _, r := range reports {
		all = append(all, r.Entries...)
	}
	return Summarize(all)
}

func malformed(e model.RawTimeEntry) string {
	switch {
	case e.Employee.ID == "":
		return "missing employee identity"
	case e.Date.IsZero():
		return "missing or unparsable date"
	}
	return ""
}

func candidate(raw model.RawTimeEntry, rng Range, employeeID string) bool {
	if !raw.Date.IsZero() && !rng.Contains(raw.Date) {
		return false
	}
	return employeeID == "" || raw.Employee.ID == "" || raw.Employee.ID == employeeID
}

func employeeOf(group []model.NormalizedTimeEntry) model.Employee {
	emp := model.Employee{ID: group[0].Employee.ID}
	for _, e := range group {
		if e.Employee.Name != "" {
			emp.Name = e.Employee.Name
			break
		}
	}
	if emp.Name == "" {
		emp.Name = emp.ID
	}
	return emp
}

func sortByName(reports []model.EmployeeReport) {
	// A Collator keeps internal buffers, so each call gets its own.
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(reports, func(i, j int) bool {
		return employeeLess(c, reports[i].Employee, reports[j].Employee)
	})
}

// SortEmployees orders employees the way reports list them: by name,
// ignoring case, then by ID.
func SortEmployees(employees []model.Employee) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(employees, func(i, j int) bool {
		return employeeLess(c, employees[i], employees[j])
	})
}

func employeeLess(c *collate.Collator, a, b model.Employee) bool {
	if r := c.CompareString(a.Name, b.Name); r != 0 {
		return r < 0
	}
	return a.ID < b.ID
}
