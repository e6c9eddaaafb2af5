package timesheet

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/normalizer"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// OpenShiftLookback is how many days back ClockOut looks for an open shift.
const OpenShiftLookback = 7

// Service runs reports and entry workflows against a Store.
type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache keeps a local copy of every successful fetch and serves reports
// from it when the store is unreachable.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithLocation sets the zone used to turn instants into calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService wires a new timesheet service instance.
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, logger: logger, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used for calendar dates.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the current time in the service location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// Today returns the current calendar date in the service location.
func (s *Service) Today() model.CalendarDate { return model.DateOf(s.now().In(s.loc)) }

// Report fetches the entries of rng and aggregates them per employee.
func (s *Service) Report(ctx context.Context, rng report.Range, employeeID string, status model.ApprovalState) (report.Result, error) {
	if err := rng.Validate(); err != nil {
		return report.Result{}, err
	}
	q := rng.Query(employeeID)
	q.Status = status

	raws, fromCache, err := s.fetch(ctx, q)
	if err != nil {
		return report.Result{}, err
	}
	res, err := report.Build(raws, rng, employeeID)
	if err != nil {
		return report.Result{}, err
	}
	res.FromCache = fromCache
	s.logWarnings(res.Warnings)
	return res, nil
}

// List returns the normalized entries matching q sorted by date, plus a
// warning for each entry that failed validation.
func (s *Service) List(ctx context.Context, q model.Query) ([]model.NormalizedTimeEntry, []report.Warning, error) {
	raws, _, err := s.fetch(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	var warnings []report.Warning
	entries := make([]model.NormalizedTimeEntry, 0, len(raws))
	for _, raw := range raws {
		n, err := normalizer.Normalize(raw)
		if err != nil {
			warnings = append(warnings, report.Warning{Kind: report.WarningExcluded, EntryID: raw.ID, EmployeeID: raw.Employee.ID, Reason: err.Error()})
			continue
		}
		entries = append(entries, n)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Date.Compare(entries[j].Date); c != 0 {
			return c < 0
		}
		return entries[i].EntryInstant.Before(entries[j].EntryInstant)
	})
	s.logWarnings(warnings)
	return entries, warnings, nil
}

func (s *Service) fetch(ctx context.Context, q model.Query) ([]model.RawTimeEntry, bool, error) {
	raws, err := s.store.FetchEntries(ctx, q)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.SaveEntries(ctx, q, raws); cerr != nil {
				s.logger.Warn("failed to update local cache", zap.Error(cerr))
			}
		}
		return raws, false, nil
	}
	if s.cache == nil || ctx.Err() != nil {
		return nil, false, fmt.Errorf("fetch entries: %w", err)
	}

	s.logger.Warn("store unreachable, reading local cache", zap.Error(err))
	cached, cerr := s.cache.FetchEntries(ctx, q)
	if cerr != nil {
		return nil, false, fmt.Errorf("fetch entries: %w (cache: %v)", err, cerr)
	}
	return cached, true, nil
}

func (s *Service) logWarnings(warnings []report.Warning) {
	for _, w := range warnings {
		s.logger.Warn("time entry "+string(w.Kind),
			zap.String("entry_id", w.EntryID),
			zap.String("employee_id", w.EmployeeID),
			zap.String("reason", w.Reason),
		)
	}
}

// ShiftTimes resolves user input for a shift on date. Values are "HH:MM"
// clock times or full timestamps; an empty exit leaves the shift open. A
// clock exit earlier than the entry falls on the next day.
func (s *Service) ShiftTimes(date model.CalendarDate, entry, exit string) (time.Time, *time.Time, error) {
	in, err := s.resolveTime(date, entry)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("entry time: %w", err)
	}
	if strings.TrimSpace(exit) == "" {
		return in, nil, nil
	}
	out, err := s.resolveTime(model.DateOf(in), exit)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("exit time: %w", err)
	}
	if _, _, clockErr := timecalc.ParseClock(exit); clockErr == nil && out.Before(in) {
		out = out.AddDate(0, 0, 1)
	}
	return in, &out, nil
}

func (s *Service) resolveTime(date model.CalendarDate, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if _, _, err := timecalc.ParseClock(v); err == nil {
		if date.IsZero() {
			return time.Time{}, fmt.Errorf("a date is required for clock time %q", v)
		}
		return timecalc.At(date.In(s.loc), v)
	}
	dv, err := model.ParseDateValue(v)
	if err != nil || !dv.IsInstant() {
		return time.Time{}, fmt.Errorf("invalid time %q (want HH:MM or a timestamp)", v)
	}
	return dv.Instant(s.loc).In(s.loc), nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id string) (model.RawTimeEntry, error) {
	return s.store.GetEntry(ctx, id)
}

// Preview computes the totals an entry would have once stored.
func (s *Service) Preview(raw model.RawTimeEntry) (model.NormalizedTimeEntry, error) {
	if raw.Date.IsZero() && !raw.EntryInstant.IsZero() {
		raw.Date = model.DateOf(raw.EntryInstant.In(s.loc))
	}
	return normalizer.Normalize(raw)
}

// Submit validates raw and creates it, or updates it when it has an ID.
// The returned entry is what the store persisted.
func (s *Service) Submit(ctx context.Context, raw model.RawTimeEntry) (model.NormalizedTimeEntry, error) {
	if _, err := s.Preview(raw); err != nil {
		return model.NormalizedTimeEntry{}, err
	}
	if raw.Date.IsZero() {
		raw.Date = model.DateOf(raw.EntryInstant.In(s.loc))
	}

	var stored model.RawTimeEntry
	var err error
	if raw.ID == "" {
		if raw.Approval == "" {
			raw.Approval = model.StatePending
		}
		stored, err = s.store.CreateEntry(ctx, raw)
	} else {
		if raw.Approval == "" {
			current, gerr := s.store.GetEntry(ctx, raw.ID)
			if gerr != nil {
				return model.NormalizedTimeEntry{}, fmt.Errorf("save entry: %w", gerr)
			}
			raw.Approval, raw.RejectionReason = current.Approval, current.RejectionReason
		}
		stored, err = s.store.UpdateEntry(ctx, raw)
	}
	if err != nil {
		return model.NormalizedTimeEntry{}, fmt.Errorf("save entry: %w", err)
	}
	s.logger.Debug("entry saved", zap.String("entry_id", stored.ID), zap.String("employee_id", stored.Employee.ID))
	return s.Preview(stored)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return nil
}

// Approve marks an entry APPROVED.
func (s *Service) Approve(ctx context.Context, id string) (model.RawTimeEntry, error) {
	if r, ok := s.store.(Reviewer); ok {
		return r.Approve(ctx, id)
	}
	return s.review(ctx, id, model.StateApproved, "")
}

// Reject marks an entry REJECTED with a reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (model.RawTimeEntry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.RawTimeEntry{}, ErrReasonRequired
	}
	if r, ok := s.store.(Reviewer); ok {
		return r.Reject(ctx, id, reason)
	}
	return s.review(ctx, id, model.StateRejected, reason)
}

func (s *Service) review(ctx context.Context, id string, state model.ApprovalState, reason string) (model.RawTimeEntry, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	e.Approval = state
	e.RejectionReason = reason
	return s.store.UpdateEntry(ctx, e)
}

// Employees lists the known employees sorted by name. Stores without a
// directory are scanned for the employees of their entries.
func (s *Service) Employees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	if d, ok := s.store.(Directory); ok {
		list, err := d.ListEmployees(ctx)
		if err != nil {
			return nil, fmt.Errorf("list employees: %w", err)
		}
		employees = list
	} else {
		raws, err := s.store.FetchEntries(ctx, model.Query{})
		if err != nil {
			return nil, fmt.Errorf("fetch entries: %w", err)
		}
		seen := make(map[string]bool)
		for _, r := range raws {
			if r.Employee.ID == "" || seen[r.Employee.ID] {
				continue
			}
			seen[r.Employee.ID] = true
			employees = append(employees, r.Employee)
		}
	}
	report.SortEmployees(employees)
	return employees, nil
}

// OpenShift returns the most recent entry of employeeID without an exit
// time in the last OpenShiftLookback days, or nil.
func (s *Service) OpenShift(ctx context.Context, employeeID string) (*model.RawTimeEntry, error) {
	today := s.Today()
	since := today.AddDays(-(OpenShiftLookback - 1))
	if f, ok := s.store.(OpenShiftFinder); ok {
		return f.OpenEntry(ctx, employeeID, since)
	}

	raws, err := s.store.FetchEntries(ctx, model.Query{Start: since, End: today, EmployeeID: employeeID})
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	var open *model.RawTimeEntry
	for i := range raws {
		if raws[i].IsOpen() && (open == nil || raws[i].EntryInstant.After(open.EntryInstant)) {
			open = &raws[i]
		}
	}
	return open, nil
}

// ClockIn starts a shift. EntryInstant defaults to now.
func (s *Service) ClockIn(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	open, err := s.OpenShift(ctx, e.Employee.ID)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	if open != nil {
		return *open, fmt.Errorf("%w: %s started %s", ErrShiftOpen, open.ID, open.EntryInstant.In(s.loc).Format("2006-01-02 15:04"))
	}

	if e.EntryInstant.IsZero() {
		e.EntryInstant = s.now().In(s.loc)
	}
	e.ExitInstant = nil
	e.Date = model.DateOf(e.EntryInstant.In(s.loc))
	if e.Approval == "" {
		e.Approval = model.StatePending
	}
	if err := normalizer.Validate(e); err != nil {
		return model.RawTimeEntry{}, err
	}
	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return model.RawTimeEntry{}, fmt.Errorf("save entry: %w", err)
	}
	return created, nil
}

// ClockOut ends the open shift of employeeID at at (now when zero).
func (s *Service) ClockOut(ctx context.Context, employeeID string, at time.Time) (model.NormalizedTimeEntry, error) {
	open, err := s.OpenShift(ctx, employeeID)
	if err != nil {
		return model.NormalizedTimeEntry{}, err
	}
	if open == nil {
		return model.NormalizedTimeEntry{}, ErrNoOpenShift
	}
	if at.IsZero() {
		at = s.now().In(s.loc)
	}
	if at.Before(open.EntryInstant) {
		return model.NormalizedTimeEntry{}, fmt.Errorf("%w: exit %s, entry %s", ErrExitBeforeEntry, at.Format(time.RFC3339), open.EntryInstant.Format(time.RFC3339))
	}
	e := *open
	e.ExitInstant = &at
	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		return model.NormalizedTimeEntry{}, fmt.Errorf("save entry: %w", err)
	}
	return normalizer.Normalize(updated)
}
