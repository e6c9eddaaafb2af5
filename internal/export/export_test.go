package export_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/shiftpay/internal/export"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
)

var generatedAt = time.Date(2025, 11, 8, 14, 5, 0, 0, time.UTC)

func entry(id, empID, name string, day int, in, out int, notes string) model.RawTimeEntry {
	rate := 150.0
	d := model.NewDate(2025, 11, day)
	e := model.RawTimeEntry{
		ID:           id,
		Employee:     model.Employee{ID: empID, Name: name},
		Date:         d,
		EntryInstant: d.In(time.UTC).Add(time.Duration(in) * time.Hour),
		DailyRate:    &rate,
		ExtraRate:    30,
		Notes:        notes,
		Approval:     model.StateApproved,
	}
	if out > 0 {
		exit := d.In(time.UTC).Add(time.Duration(out) * time.Hour)
		e.ExitInstant = &exit
	}
	return e
}

func fixture(t *testing.T) report.Result {
	t.Helper()
	ana := entry("a1", "ana", "Ana", 3, 9, 17, `troca, "urgente"`)
	ana.Extra = model.ClockExtra(1, 0)
	raws := []model.RawTimeEntry{
		ana,
		entry("a2", "ana", "Ana", 4, 9, 17, ""),
		entry("b1", "bruno", "Bruno", 5, 22, 0, "<b>aberto</b>"),
	}
	rng, _ := report.NewRange(model.NewDate(2025, 11, 3), model.NewDate(2025, 11, 9))
	res, err := report.Build(raws, rng, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

func TestBuildTable(t *testing.T) {
	res := fixture(t)
	table := export.BuildTable(res.Reports, res.Range, generatedAt)

	if table.Period != "Período: 03/11/2025 a 09/11/2025" {
		t.Errorf("Period = %q", table.Period)
	}
	if table.Footer != "Gerado em 08/11/2025 às 14:05" {
		t.Errorf("Footer = %q", table.Footer)
	}

	wantKinds := []export.RowKind{
		export.RowEmployee, export.RowEntry, export.RowEntry, export.RowTotal,
		export.RowEmployee, export.RowEntry, export.RowTotal,
		export.RowGrandTotal,
	}
	if len(table.Rows) != len(wantKinds) {
		t.Fatalf("rows = %d, want %d", len(table.Rows), len(wantKinds))
	}
	for i, k := range wantKinds {
		if table.Rows[i].Kind != k {
			t.Errorf("row %d kind = %v, want %v", i, table.Rows[i].Kind, k)
		}
		if len(table.Rows[i].Cells) != len(export.Columns) {
			t.Errorf("row %d has %d cells", i, len(table.Rows[i].Cells))
		}
	}

	first := table.Rows[1].Cells
	want := []string{"", "03/11/2025", "09:00", "17:00", "09:00", "01:00", `troca, "urgente"`, "R$ 180,00"}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("first entry cell %d = %q, want %q", i, first[i], want[i])
		}
	}

	open := table.Rows[5].Cells
	if open[3] != "--:--" || open[4] != "--:--" || open[5] != "--:--" {
		t.Errorf("open shift cells = %q", open)
	}

	anaTotal := table.Rows[3].Cells
	if anaTotal[0] != "Total Ana:" || anaTotal[4] != "17:00" || anaTotal[5] != "01:00" || anaTotal[7] != "R$ 330,00" {
		t.Errorf("Ana total = %q", anaTotal)
	}
	grand := table.Rows[7].Cells
	if grand[0] != "Total geral:" || grand[7] != "R$ 480,00" {
		t.Errorf("grand total = %q", grand)
	}
}

func TestBuildTableSingleEmployeeHasNoGrandTotal(t *testing.T) {
	res := fixture(t)
	table := export.BuildTable(res.Reports[:1], res.Range, generatedAt)
	if last := table.Rows[len(table.Rows)-1]; last.Kind != export.RowTotal {
		t.Errorf("last row kind = %v, want total", last.Kind)
	}
}

func TestWriteCSV(t *testing.T) {
	res := fixture(t)
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.BuildTable(res.Reports, res.Range, generatedAt)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("lines = %d, want 12:\n%s", len(lines), buf.String())
	}
	want := map[int]string{
		0:  "Registros de Extras",
		1:  "Período: 03/11/2025 a 09/11/2025",
		2:  "Funcionário,Data,Entrada,Saída,Total,Extras,Notas,Total a Pagar",
		3:  "Ana,,,,,,,",
		4:  `,03/11/2025,09:00,17:00,09:00,01:00,"troca, ""urgente""","R$ 180,00"`,
		10: `Total geral:,,,,17:00,01:00,,"R$ 480,00"`,
		11: "Gerado em 08/11/2025 às 14:05",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestValues(t *testing.T) {
	res := fixture(t)
	values := export.BuildTable(res.Reports, res.Range, generatedAt).Values()
	if len(values) != 12 {
		t.Fatalf("rows = %d, want 12", len(values))
	}
	if values[0][0] != export.Title || values[2][0] != "Funcionário" {
		t.Errorf("head rows = %v", values[:3])
	}
	if last := values[len(values)-1]; len(last) != 1 || last[0] != "Gerado em 08/11/2025 às 14:05" {
		t.Errorf("footer row = %v", last)
	}
}

func TestRenderFooter(t *testing.T) {
	res := fixture(t)
	for _, f := range []export.Format{export.FormatCSV, export.FormatHTML} {
		var buf bytes.Buffer
		if err := export.Render(&buf, f, res, generatedAt); err != nil {
			t.Fatalf("Render(%s): %v", f, err)
		}
		if !strings.Contains(buf.String(), "Gerado em 08/11/2025 às 14:05") {
			t.Errorf("%s document has no footer", f)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	res := fixture(t)
	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, export.BuildTable(res.Reports, res.Range, generatedAt)); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		"<h1>Registros de Extras</h1>",
		`<tr class="employee"><td colspan="8">Ana</td></tr>`,
		`<tr class="grand-total"><td colspan="4">Total geral:</td>`,
		"&lt;b&gt;aberto&lt;/b&gt;",
		"Gerado em 08/11/2025 às 14:05",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(html, "<b>aberto</b>") {
		t.Error("notes were not escaped")
	}
}

func TestWriteXLSX(t *testing.T) {
	res := fixture(t)
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.BuildTable(res.Reports, res.Range, generatedAt)); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != export.SheetName {
		t.Errorf("sheets = %v", sheets)
	}
	cells := map[string]string{
		"A1":  export.Title,
		"A4":  "Funcionário",
		"H4":  "Total a Pagar",
		"A5":  "Ana",
		"B6":  "03/11/2025",
		"H6":  "R$ 180,00",
		"A8":  "Total Ana:",
		"A12": "Total geral:",
		"A14": "Gerado em 08/11/2025 às 14:05",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(export.SheetName, cell)
		if err != nil || got != want {
			t.Errorf("%s = %q (%v), want %q", cell, got, err, want)
		}
	}
}

func TestWriteXLSXReportsSheetErrors(t *testing.T) {
	res := fixture(t)
	table := export.BuildTable(res.Reports, res.Range, generatedAt)
	// Page headers are limited to 255 characters.
	table.Title = strings.Repeat("x", 300)

	if err := export.WriteXLSX(&bytes.Buffer{}, table); err == nil {
		t.Fatal("WriteXLSX accepted a title too long for the page header")
	}
}

func TestRenderJSON(t *testing.T) {
	res := fixture(t)
	var buf bytes.Buffer
	if err := export.Render(&buf, export.FormatJSON, res, generatedAt); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded struct {
		Reports []struct {
			Totals model.Totals `json:"totals"`
		} `json:"reports"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Reports) != 2 || decoded.Reports[0].Totals.TotalPay != 330 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    export.Format
		wantErr bool
	}{
		{"xlsx", export.FormatXLSX, false},
		{" CSV ", export.FormatCSV, false},
		{"html", export.FormatHTML, false},
		{"json", export.FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := export.ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSaveFile(t *testing.T) {
	res := fixture(t)
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := export.SaveFile(dir, export.FormatCSV, res, generatedAt)
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if filepath.Base(path) != "registros_2025-11-03_a_2025-11-09.csv" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(data), "Registros de Extras\n") {
		t.Errorf("file content = %q, %v", data, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".export-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
