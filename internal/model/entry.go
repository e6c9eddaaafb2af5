package model

import (
	"fmt"
	"strings"
	"time"
)

// ApprovalState is the review status of a time entry.
type ApprovalState string

const (
	StatePending  ApprovalState = "PENDING"
	StateApproved ApprovalState = "APPROVED"
	StateRejected ApprovalState = "REJECTED"
)

// ParseApprovalState accepts any casing of the three known states.
// An empty string parses to the empty state (no filter).
func ParseApprovalState(s string) (ApprovalState, error) {
	switch st := ApprovalState(strings.ToUpper(strings.TrimSpace(s))); st {
	case "", StatePending, StateApproved, StateRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown approval state %q", s)
}

// Employee identifies who a time entry belongs to.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawTimeEntry is a time entry as held by a store.
type RawTimeEntry struct {
	ID           string        `json:"id"`
	Employee     Employee      `json:"employee"`
	Date         CalendarDate  `json:"date"`
	EntryInstant time.Time     `json:"entry_time"`
	ExitInstant  *time.Time    `json:"exit_time"`
	DailyRate    *float64      `json:"daily_rate"`
	Extra        ExtraDuration `json:"extra_hours"`
	ExtraRate    float64       `json:"extra_rate"`
	Notes        string        `json:"notes,omitempty"`
	Approval     ApprovalState `json:"status"`

	// RejectionReason is set when a reviewer rejects the entry.
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// IsOpen reports whether the shift has not been clocked out yet.
func (e RawTimeEntry) IsOpen() bool {
	return e.ExitInstant == nil || e.ExitInstant.IsZero()
}

// NormalizedTimeEntry is the computed projection of a RawTimeEntry.
// Hours are kept at full precision; TotalPay is rounded to cents.
type NormalizedTimeEntry struct {
	RawTimeEntry
	WorkedHours float64 `json:"worked_hours"`
	ExtraHours  float64 `json:"extra_hours_decimal"`
	TotalHours  float64 `json:"total_hours"`
	TotalPay    float64 `json:"total_pay"`
	// Defaulted lists optional fields that were unusable and fell back to zero.
	Defaulted []string `json:"defaulted,omitempty"`
}

// Totals are the per-employee sums of a report.
type Totals struct {
	DaysWorked   int     `json:"days_worked"`
	RegularHours float64 `json:"total_regular_hours"`
	ExtraHours   float64 `json:"total_extra_hours"`
	TotalHours   float64 `json:"total_hours"`
	TotalPay     float64 `json:"total_pay"`
}

// EmployeeReport groups one employee's entries within a report range.
type EmployeeReport struct {
	Employee Employee              `json:"employee"`
	Entries  []NormalizedTimeEntry `json:"entries"`
	Totals   Totals                `json:"totals"`
}

// DayFile is the on-disk representation of one calendar day.
type DayFile struct {
	Date    CalendarDate   `json:"date"`
	Entries []RawTimeEntry `json:"entries"`
}

// Query selects entries from a store. Zero-valued filters match everything.
type Query struct {
	Start      CalendarDate
	End        CalendarDate
	EmployeeID string
	Status     ApprovalState
}

// Matches reports whether e satisfies the query filters.
func (q Query) Matches(e RawTimeEntry) bool {
	if q.EmployeeID != "" && e.Employee.ID != q.EmployeeID {
		return false
	}
	if q.Status != "" && e.Approval != q.Status {
		return false
	}
	if !q.Start.IsZero() && e.Date.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Date.After(q.End) {
		return false
	}
	return true
}
