package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Tiliavir/shiftpay/internal/model"
)

func TestParseExtraDuration(t *testing.T) {
	tests := []struct {
		in   string
		want model.ExtraDuration
	}{
		{"", model.ExtraDuration{}},
		{"01:30", model.ClockExtra(1, 30)},
		{"00:00", model.ClockExtra(0, 0)},
		{"1.5", model.DecimalExtra(1.5)},
		{"2,25", model.DecimalExtra(2.25)},
		{"1:75", model.ExtraDuration{Kind: model.ExtraMalformed, Raw: "1:75"}},
		{"-1:10", model.ExtraDuration{Kind: model.ExtraMalformed, Raw: "-1:10"}},
		{"abc", model.ExtraDuration{Kind: model.ExtraMalformed, Raw: "abc"}},
	}
	for _, tt := range tests {
		if got := model.ParseExtraDuration(tt.in); got != tt.want {
			t.Errorf("ParseExtraDuration(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestExtraDurationJSON(t *testing.T) {
	tests := []struct {
		in   string
		want model.ExtraDuration
		out  string
	}{
		{`null`, model.ExtraDuration{}, `null`},
		{`1.5`, model.DecimalExtra(1.5), `1.5`},
		{`"02:15"`, model.ClockExtra(2, 15), `"02:15"`},
		{`"x"`, model.ExtraDuration{Kind: model.ExtraMalformed, Raw: "x"}, `"x"`},
	}
	for _, tt := range tests {
		var got model.ExtraDuration
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
		}
		out, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(out) != tt.out {
			t.Errorf("Marshal(%+v) = %s, want %s", got, out, tt.out)
		}
	}
}

func TestCalendarDate(t *testing.T) {
	d, err := model.ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != model.NewDate(2024, time.March, 5) {
		t.Errorf("ParseDate = %v", d)
	}
	if got := d.AddDays(-5).String(); got != "2024-02-29" {
		t.Errorf("AddDays(-5) = %q, want 2024-02-29", got)
	}
	if !d.Before(model.NewDate(2024, time.March, 6)) || d.After(d) {
		t.Error("Before/After ordering is wrong")
	}
	if _, err := model.ParseDate("05/03/2024"); err == nil {
		t.Error("ParseDate accepted a non ISO date")
	}

	raw, _ := json.Marshal(d)
	if string(raw) != `"2024-03-05"` {
		t.Errorf("Marshal = %s", raw)
	}
	var back model.CalendarDate
	if err := json.Unmarshal(raw, &back); err != nil || back != d {
		t.Errorf("Unmarshal = %v, %v", back, err)
	}
}

func TestDateValueCanonicalization(t *testing.T) {
	tests := []struct {
		in   string
		loc  *time.Location
		want model.CalendarDate
	}{
		{"2024-03-05", nil, model.NewDate(2024, time.March, 5)},
		{"2024-03-05T23:30:00Z", nil, model.NewDate(2024, time.March, 5)},
		{"2024-03-05T23:30:00.000Z", time.FixedZone("BRT", -3*3600), model.NewDate(2024, time.March, 5)},
		{"2024-03-06T01:30:00Z", time.FixedZone("BRT", -3*3600), model.NewDate(2024, time.March, 5)},
		{"2024-03-05T10:00:00", nil, model.NewDate(2024, time.March, 5)},
	}
	for _, tt := range tests {
		v, err := model.ParseDateValue(tt.in)
		if err != nil {
			t.Fatalf("ParseDateValue(%q): %v", tt.in, err)
		}
		if got := v.Date(tt.loc); got != tt.want {
			t.Errorf("ParseDateValue(%q).Date = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := model.ParseDateValue("yesterday"); err == nil {
		t.Error("ParseDateValue accepted garbage")
	}
}

func TestQueryMatches(t *testing.T) {
	e := model.RawTimeEntry{
		Employee: model.Employee{ID: "e1"},
		Date:     model.NewDate(2024, time.March, 5),
		Approval: model.StateApproved,
	}
	tests := []struct {
		name string
		q    model.Query
		want bool
	}{
		{"empty", model.Query{}, true},
		{"in range", model.Query{Start: model.NewDate(2024, 3, 5), End: model.NewDate(2024, 3, 5)}, true},
		{"before range", model.Query{Start: model.NewDate(2024, 3, 6)}, false},
		{"after range", model.Query{End: model.NewDate(2024, 3, 4)}, false},
		{"other employee", model.Query{EmployeeID: "e2"}, false},
		{"status", model.Query{Status: model.StatePending}, false},
	}
	for _, tt := range tests {
		if got := tt.q.Matches(e); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseApprovalState(t *testing.T) {
	if st, err := model.ParseApprovalState("approved"); err != nil || st != model.StateApproved {
		t.Errorf("ParseApprovalState(approved) = %q, %v", st, err)
	}
	if _, err := model.ParseApprovalState("done"); err == nil {
		t.Error("ParseApprovalState accepted an unknown state")
	}
}
