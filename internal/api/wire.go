package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// flexID accepts the ID shapes the API has been seen to return: a plain
// string, {"$oid": "..."}, {"_id": ...} or a serialized ObjectId buffer.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	*f = flexID(decodeID(data))
	return nil
}

func decodeID(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	var obj struct {
		OID    *string         `json:"$oid"`
		ID     json.RawMessage `json:"_id"`
		AltID  json.RawMessage `json:"id"`
		Buffer json.RawMessage `json:"buffer"`
	}
	if json.Unmarshal(data, &obj) != nil {
		return ""
	}
	switch {
	case obj.OID != nil:
		return *obj.OID
	case len(obj.ID) > 0:
		return decodeID(obj.ID)
	case len(obj.AltID) > 0:
		return decodeID(obj.AltID)
	case len(obj.Buffer) > 0:
		return decodeBuffer(obj.Buffer)
	}
	return ""
}

// decodeBuffer reads {"0": 101, "1": 42, ...} or {"type": "Buffer", "data": [...]}.
func decodeBuffer(data []byte) string {
	var node struct {
		Data []int `json:"data"`
	}
	if json.Unmarshal(data, &node) == nil && len(node.Data) > 0 {
		return hexBytes(node.Data)
	}
	var indexed map[string]json.RawMessage
	if json.Unmarshal(data, &indexed) != nil {
		return ""
	}
	type pair struct{ idx, val int }
	var pairs []pair
	for k, v := range indexed {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		var b int
		if json.Unmarshal(v, &b) != nil {
			return ""
		}
		pairs = append(pairs, pair{idx, b})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })
	vals := make([]int, len(pairs))
	for i, p := range pairs {
		vals[i] = p.val
	}
	return hexBytes(vals)
}

func hexBytes(vals []int) string {
	b := make([]byte, len(vals))
	for i, v := range vals {
		b[i] = byte(v)
	}
	return hex.EncodeToString(b)
}

// flexEmployee accepts an employee ID or an employee object.
type flexEmployee struct {
	ID   string
	Name string
}

func (f *flexEmployee) UnmarshalJSON(data []byte) error {
	var s string
	if json.Unmarshal(data, &s) == nil {
		f.ID = s
		return nil
	}
	var dto employeeDTO
	if json.Unmarshal(data, &dto) == nil && (dto.ID != "" || dto.AltID != "" || dto.Name != "" || dto.FirstName != "") {
		e := dto.toModel()
		f.ID, f.Name = e.ID, e.Name
		return nil
	}
	f.ID = decodeID(data)
	return nil
}

// flexTime accepts "YYYY-MM-DD", ISO timestamps, {"$date": ...} and epoch
// milliseconds. Unusable values decode as invalid instead of failing the
// whole response.
type flexTime struct {
	Value model.DateValue
	Valid bool
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	f.Value, f.Valid = decodeTime(data)
	return nil
}

func decodeTime(data []byte) (model.DateValue, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return model.DateValue{}, false
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return model.InstantValue(time.UnixMilli(ms).UTC()), true
		}
		v, err := model.ParseDateValue(s)
		return v, err == nil
	}
	var n float64
	if json.Unmarshal(data, &n) == nil {
		return model.InstantValue(time.UnixMilli(int64(n)).UTC()), true
	}
	var obj struct {
		Date json.RawMessage `json:"$date"`
		Long *string         `json:"$numberLong"`
	}
	if json.Unmarshal(data, &obj) != nil {
		return model.DateValue{}, false
	}
	if obj.Long != nil {
		return decodeTime([]byte(strconv.Quote(*obj.Long)))
	}
	if len(obj.Date) > 0 {
		return decodeTime(obj.Date)
	}
	return model.DateValue{}, false
}

// flexNumber accepts numbers and numeric strings; anything else is absent.
type flexNumber struct {
	Value *float64
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	f.Value = nil
	var v any
	if json.Unmarshal(data, &v) != nil {
		return nil
	}
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case string:
		parsed, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(x), ",", ".", 1), 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	f.Value = &n
	return nil
}

type employeeDTO struct {
	ID        flexID `json:"_id"`
	AltID     flexID `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (d employeeDTO) toModel() model.Employee {
	id := string(d.ID)
	if id == "" {
		id = string(d.AltID)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = strings.TrimSpace(d.FirstName + " " + d.LastName)
	}
	return model.Employee{ID: id, Name: name}
}

// timeEntryDTO is a time entry as returned by the API.
type timeEntryDTO struct {
	ID                  flexID       `json:"_id"`
	AltID               flexID       `json:"id"`
	Employee            flexEmployee `json:"employee"`
	EmployeeID          flexID       `json:"employeeId"`
	Date                flexTime     `json:"date"`
	EntryTime           flexTime     `json:"entryTime"`
	ExitTime            flexTime     `json:"exitTime"`
	Status              string       `json:"status"`
	DailyRate           flexNumber   `json:"dailyRate"`
	ExtraHours          flexNumber   `json:"extraHours"`
	ExtraHoursFormatted *string      `json:"extraHoursFormatted"`
	ExtraHoursRate      flexNumber   `json:"extraHoursRate"`
	Notes               string       `json:"notes"`
	RejectedReason      string       `json:"rejectedReason"`
}

// toModel canonicalizes the wire entry. Instants are read in loc.
func (d timeEntryDTO) toModel(loc *time.Location) model.RawTimeEntry {
	if loc == nil {
		loc = time.UTC
	}
	e := model.RawTimeEntry{
		ID:              string(d.ID),
		Employee:        model.Employee{ID: d.Employee.ID, Name: d.Employee.Name},
		DailyRate:       d.DailyRate.Value,
		Extra:           d.extra(),
		Notes:           d.Notes,
		RejectionReason: d.RejectedReason,
	}
	if e.ID == "" {
		e.ID = string(d.AltID)
	}
	if e.Employee.ID == "" {
		e.Employee.ID = string(d.EmployeeID)
	}
	if d.Date.Valid {
		e.Date = d.Date.Value.Date(loc)
	}
	if d.EntryTime.Valid {
		e.EntryInstant = d.EntryTime.Value.Instant(loc).In(loc)
	}
	if d.ExitTime.Valid {
		exit := d.ExitTime.Value.Instant(loc).In(loc)
		e.ExitInstant = &exit
	}
	if d.ExtraHoursRate.Value != nil {
		e.ExtraRate = *d.ExtraHoursRate.Value
	}
	if st, err := model.ParseApprovalState(d.Status); err == nil && st != "" {
		e.Approval = st
	} else {
		e.Approval = model.StatePending
	}
	return e
}

// extra prefers the formatted value unless it is empty or "00:00".
func (d timeEntryDTO) extra() model.ExtraDuration {
	if d.ExtraHoursFormatted != nil {
		if f := strings.TrimSpace(*d.ExtraHoursFormatted); f != "" && f != "00:00" {
			return model.ParseExtraDuration(f)
		}
	}
	if d.ExtraHours.Value != nil {
		return model.DecimalExtra(*d.ExtraHours.Value)
	}
	return model.ExtraDuration{}
}

// entryPayload is the body of create and update requests.
type entryPayload struct {
	Employee            string   `json:"employee"`
	Date                string   `json:"date"`
	EntryTime           string   `json:"entryTime"`
	ExitTime            *string  `json:"exitTime"`
	Notes               string   `json:"notes,omitempty"`
	DailyRate           *float64 `json:"dailyRate,omitempty"`
	ExtraHoursRate      float64  `json:"extraHoursRate"`
	ExtraHoursFormatted string   `json:"extraHoursFormatted,omitempty"`
	Status              string   `json:"status,omitempty"`
}

func newEntryPayload(e model.RawTimeEntry, loc *time.Location) entryPayload {
	p := entryPayload{
		Employee:       e.Employee.ID,
		Date:           e.Date.String(),
		EntryTime:      e.EntryInstant.In(loc).Format("15:04"),
		Notes:          e.Notes,
		DailyRate:      e.DailyRate,
		ExtraHoursRate: e.ExtraRate,
		Status:         string(e.Approval),
	}
	if e.ExitInstant != nil {
		exit := e.ExitInstant.In(loc).Format("15:04")
		p.ExitTime = &exit
	}
	switch e.Extra.Kind {
	case model.ExtraDecimal:
		p.ExtraHoursFormatted = timecalc.FormatHours(e.Extra.Decimal)
	case model.ExtraClock:
		p.ExtraHoursFormatted = e.Extra.String()
	}
	return p
}

// decodeList accepts a bare JSON array or an object wrapping it in "data".
func decodeList[T any](body []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return wrapped.Data, nil
}

// fallbackName labels an employee the directory does not know.
func fallbackName(id string) string {
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "Empleado " + id
}
