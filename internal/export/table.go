// Package export turns report results into shareable documents.
package export

import (
	"time"

	"github.com/Tiliavir/shiftpay/internal/currency"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// Title heads every document.
const Title = "Registros de Extras"

// Placeholders for values that are absent.
const (
	noTime  = "--:--"
	noValue = "--"
)

// Columns are the document columns, in order.
var Columns = []string{"Funcionário", "Data", "Entrada", "Saída", "Total", "Extras", "Notas", "Total a Pagar"}

// RowKind distinguishes the rows of a Table.
type RowKind int

const (
	RowEmployee RowKind = iota
	RowEntry
	RowTotal
	RowGrandTotal
)

func (k RowKind) String() string {
	switch k {
	case RowEmployee:
		return "employee"
	case RowTotal:
		return "total"
	case RowGrandTotal:
		return "grand-total"
	}
	return "entry"
}

// IsTotal reports whether rows of kind k carry totals.
func (k RowKind) IsTotal() bool { return k == RowTotal || k == RowGrandTotal }

// Row is one table row with one cell per column.
type Row struct {
	Kind  RowKind
	Cells []string
}

// Table is the rendered form of a report, shared by every document format.
type Table struct {
	Title   string
	Period  string
	Columns []string
	Rows    []Row
	Footer  string
}

// BuildTable lays out reports the way documents show them: a header row per
// employee, one row per entry in date order and a total row per employee,
// then a grand total and a "Gerado em" footer stamped with generatedAt.
func BuildTable(reports []model.EmployeeReport, rng report.Range, generatedAt time.Time) Table {
	t := Table{
		Title:   Title,
		Period:  "Período: " + rng.Start.Format(timecalc.DisplayDateLayout) + " a " + rng.End.Format(timecalc.DisplayDateLayout),
		Columns: Columns,
		Footer:  "Gerado em " + generatedAt.Format(timecalc.DisplayDateLayout) + " às " + generatedAt.Format("15:04"),
	}

	for _, r := range reports {
		name := r.Employee.Name
		if name == "" {
			name = r.Employee.ID
		}
		t.Rows = append(t.Rows, row(RowEmployee, name))
		for _, e := range r.Entries {
			t.Rows = append(t.Rows, entryRow(e))
		}
		t.Rows = append(t.Rows, totalRow(RowTotal, "Total "+name+":", r.Totals))
	}
	if len(reports) > 1 {
		t.Rows = append(t.Rows, totalRow(RowGrandTotal, "Total geral:", report.GrandTotals(reports)))
	}
	return t
}

func row(kind RowKind, cells ...string) Row {
	r := Row{Kind: kind, Cells: make([]string, len(Columns))}
	copy(r.Cells, cells)
	return r
}

func entryRow(e model.NormalizedTimeEntry) Row {
	total := noTime
	if !e.IsOpen() {
		total = timecalc.FormatHours(e.TotalHours)
	}
	extra := noTime
	if e.ExtraHours > 0 {
		extra = timecalc.FormatHours(e.ExtraHours)
	}
	notes := e.Notes
	if notes == "" {
		notes = noValue
	}
	pay := noValue
	if e.TotalPay > 0 {
		pay = currency.Format(e.TotalPay)
	}
	return row(RowEntry,
		"",
		e.Date.Format(timecalc.DisplayDateLayout),
		timecalc.FormatClock(&e.EntryInstant),
		timecalc.FormatClock(e.ExitInstant),
		total,
		extra,
		notes,
		pay,
	)
}

func totalRow(kind RowKind, label string, totals model.Totals) Row {
	return row(kind,
		label, "", "", "",
		timecalc.FormatHours(totals.TotalHours),
		timecalc.FormatHours(totals.ExtraHours),
		"",
		currency.Format(totals.TotalPay),
	)
}

// records lays t out line by line the way flat formats show it. The title,
// period and footer lines carry a single cell.
func (t Table) records() [][]string {
	out := make([][]string, 0, len(t.Rows)+4)
	out = append(out, []string{t.Title}, []string{t.Period}, t.Columns)
	for _, r := range t.Rows {
		out = append(out, r.Cells)
	}
	return append(out, []string{t.Footer})
}

// Values returns the lines of t as spreadsheet values, from the title down
// to the footer.
func (t Table) Values() [][]any {
	records := t.records()
	out := make([][]any, len(records))
	for i, rec := range records {
		cells := make([]any, len(rec))
		for j, c := range rec {
			cells[j] = c
		}
		out[i] = cells
	}
	return out
}
