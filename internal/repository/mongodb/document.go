package mongodb

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tiliavir/shiftpay/internal/model"
)

type employeeDocument struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`
}

// entryDocument is the stored shape of a time entry.
type entryDocument struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Employee            employeeDocument   `bson:"employee"`
	Date                time.Time          `bson:"date"`
	EntryTime           time.Time          `bson:"entryTime"`
	ExitTime            *time.Time         `bson:"exitTime,omitempty"`
	Status              string             `bson:"status"`
	DailyRate           *float64           `bson:"dailyRate,omitempty"`
	ExtraHours          *float64           `bson:"extraHours,omitempty"`
	ExtraHoursFormatted string             `bson:"extraHoursFormatted,omitempty"`
	ExtraHoursRate      float64            `bson:"extraHoursRate"`
	Notes               string             `bson:"notes,omitempty"`
	RejectedReason      string             `bson:"rejectedReason,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt           time.Time          `bson:"updatedAt,omitempty"`
}

// newDocument converts e without its ID and timestamps.
func newDocument(e model.RawTimeEntry) entryDocument {
	d := entryDocument{
		Employee:       employeeDocument{ID: e.Employee.ID, Name: e.Employee.Name},
		EntryTime:      e.EntryInstant.UTC(),
		Status:         string(e.Approval),
		DailyRate:      e.DailyRate,
		ExtraHoursRate: e.ExtraRate,
		Notes:          e.Notes,
		RejectedReason: e.RejectionReason,
	}
	if !e.Date.IsZero() {
		d.Date = e.Date.In(time.UTC)
	}
	if e.ExitInstant != nil {
		exit := e.ExitInstant.UTC()
		d.ExitTime = &exit
	}
	switch e.Extra.Kind {
	case model.ExtraDecimal:
		v := e.Extra.Decimal
		d.ExtraHours = &v
	case model.ExtraClock, model.ExtraMalformed:
		d.ExtraHoursFormatted = e.Extra.String()
	}
	return d
}

func (d entryDocument) toModel(loc *time.Location) model.RawTimeEntry {
	e := model.RawTimeEntry{
		Employee:        model.Employee{ID: d.Employee.ID, Name: d.Employee.Name},
		DailyRate:       d.DailyRate,
		ExtraRate:       d.ExtraHoursRate,
		Notes:           d.Notes,
		Approval:        model.StatePending,
		RejectionReason: d.RejectedReason,
	}
	if !d.ID.IsZero() {
		e.ID = d.ID.Hex()
	}
	if !d.Date.IsZero() {
		e.Date = model.DateOf(d.Date.UTC())
	}
	if !d.EntryTime.IsZero() {
		e.EntryInstant = d.EntryTime.In(loc)
	}
	if d.ExitTime != nil {
		exit := d.ExitTime.In(loc)
		e.ExitInstant = &exit
	}
	if st, err := model.ParseApprovalState(d.Status); err == nil && st != "" {
		e.Approval = st
	}

	if f := strings.TrimSpace(d.ExtraHoursFormatted); f != "" && f != "00:00" {
		e.Extra = model.ParseExtraDuration(f)
	} else if d.ExtraHours != nil {
		e.Extra = model.DecimalExtra(*d.ExtraHours)
	}
	return e
}
