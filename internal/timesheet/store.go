// Package timesheet connects time-entry stores to the normalizer and the
// report aggregator.
package timesheet

import (
	"context"
	"errors"

	"github.com/Tiliavir/shiftpay/internal/model"
)

var (
	// ErrNotFound is returned by stores for an unknown entry ID.
	ErrNotFound = errors.New("time entry not found")
	// ErrNoOpenShift is returned when clocking out without an open shift.
	ErrNoOpenShift = errors.New("no open shift")
	// ErrShiftOpen is returned when clocking in while a shift is still open.
	ErrShiftOpen = errors.New("a shift is already open")
	// ErrExitBeforeEntry is returned when clocking out before the shift began.
	ErrExitBeforeEntry = errors.New("exit is before entry")
	// ErrReasonRequired is returned when rejecting without a reason.
	ErrReasonRequired = errors.New("a rejection reason is required")
)

// Fetcher returns the raw entries matching a query.
type Fetcher interface {
	FetchEntries(ctx context.Context, q model.Query) ([]model.RawTimeEntry, error)
}

// Store is an authoritative time-entry backend.
type Store interface {
	Fetcher
	GetEntry(ctx context.Context, id string) (model.RawTimeEntry, error)
	CreateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error)
	UpdateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// Reviewer is implemented by stores with a native approval workflow.
type Reviewer interface {
	Approve(ctx context.Context, id string) (model.RawTimeEntry, error)
	Reject(ctx context.Context, id, reason string) (model.RawTimeEntry, error)
}

// OpenShiftFinder is implemented by stores that can look up an open shift
// without a range fetch.
type OpenShiftFinder interface {
	OpenEntry(ctx context.Context, employeeID string, since model.CalendarDate) (*model.RawTimeEntry, error)
}

// Cache keeps a local copy of fetched entries for offline reports.
type Cache interface {
	Fetcher
	SaveEntries(ctx context.Context, q model.Query, entries []model.RawTimeEntry) error
}

// Directory lists known employees.
type Directory interface {
	ListEmployees(ctx context.Context) ([]model.Employee, error)
}
