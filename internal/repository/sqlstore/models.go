package sqlstore

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Tiliavir/shiftpay/internal/model"
)

// TimeEntry is the time_entries table row.
type TimeEntry struct {
	ID              uuid.UUID  `gorm:"type:char(36);primaryKey"`
	EmployeeID      string     `gorm:"size:64;index:idx_employee_date;not null"`
	EmployeeName    string     `gorm:"size:255"`
	Date            time.Time  `gorm:"type:date;index:idx_employee_date;not null"`
	EntryTime       time.Time  `gorm:"not null"`
	ExitTime        *time.Time `gorm:"index"`
	Status          string     `gorm:"size:16;index;not null;default:PENDING"`
	DailyRate       *float64   `gorm:"column:daily_rate"`
	ExtraKind       uint8      `gorm:"not null;default:0"`
	ExtraDecimal    float64    `gorm:"not null;default:0"`
	ExtraText       string     `gorm:"size:32"`
	ExtraRate       float64    `gorm:"not null;default:0"`
	Notes           string     `gorm:"type:text"`
	RejectionReason string     `gorm:"size:512"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t *TimeEntry) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// newRow converts e. An ID that is not a UUID yields uuid.Nil.
func newRow(e model.RawTimeEntry) TimeEntry {
	row := TimeEntry{
		EmployeeID:      e.Employee.ID,
		EmployeeName:    e.Employee.Name,
		EntryTime:       e.EntryInstant.UTC(),
		Status:          string(e.Approval),
		DailyRate:       e.DailyRate,
		ExtraKind:       uint8(e.Extra.Kind),
		ExtraRate:       e.ExtraRate,
		Notes:           e.Notes,
		RejectionReason: e.RejectionReason,
	}
	if id, err := uuid.Parse(strings.TrimSpace(e.ID)); err == nil {
		row.ID = id
	}
	if !e.Date.IsZero() {
		row.Date = e.Date.In(time.UTC)
	}
	if e.ExitInstant != nil {
		exit := e.ExitInstant.UTC()
		row.ExitTime = &exit
	}
	switch e.Extra.Kind {
	case model.ExtraDecimal:
		row.ExtraDecimal = e.Extra.Decimal
	case model.ExtraClock, model.ExtraMalformed:
		row.ExtraText = e.Extra.String()
	}
	if row.Status == "" {
		row.Status = string(model.StatePending)
	}
	return row
}

func (t TimeEntry) toModel(loc *time.Location) model.RawTimeEntry {
	e := model.RawTimeEntry{
		Employee:        model.Employee{ID: t.EmployeeID, Name: t.EmployeeName},
		DailyRate:       t.DailyRate,
		ExtraRate:       t.ExtraRate,
		Notes:           t.Notes,
		Approval:        model.StatePending,
		RejectionReason: t.RejectionReason,
	}
	if t.ID != uuid.Nil {
		e.ID = t.ID.String()
	}
	if !t.Date.IsZero() {
		e.Date = model.NewDate(t.Date.Year(), t.Date.Month(), t.Date.Day())
	}
	if !t.EntryTime.IsZero() {
		e.EntryInstant = t.EntryTime.In(loc)
	}
	if t.ExitTime != nil {
		exit := t.ExitTime.In(loc)
		e.ExitInstant = &exit
	}
	if st, err := model.ParseApprovalState(t.Status); err == nil && st != "" {
		e.Approval = st
	}
	switch model.ExtraKind(t.ExtraKind) {
	case model.ExtraDecimal:
		e.Extra = model.DecimalExtra(t.ExtraDecimal)
	case model.ExtraClock, model.ExtraMalformed:
		e.Extra = model.ParseExtraDuration(t.ExtraText)
	}
	return e
}
