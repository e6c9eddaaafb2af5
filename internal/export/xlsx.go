package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the records.
const SheetName = "Registros"

const headerRow = 4

var columnWidths = []float64{22, 12, 10, 10, 10, 10, 30, 16}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	last, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeHeading(f, t, last, styles); err != nil {
		return err
	}

	rowNum := headerRow + 1
	for _, r := range t.Rows {
		for i, v := range r.Cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
		from, to := fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", last, rowNum)
		style := styles.cell
		switch r.Kind {
		case RowEmployee:
			if err := f.MergeCell(SheetName, from, to); err != nil {
				return fmt.Errorf("merge %s:%s: %w", from, to, err)
			}
			style = styles.employee
		case RowTotal, RowGrandTotal:
			style = styles.total
		}
		if err := f.SetCellStyle(SheetName, from, to, style); err != nil {
			return fmt.Errorf("style %s:%s: %w", from, to, err)
		}
		rowNum++
	}

	footer := fmt.Sprintf("A%d", rowNum+1)
	if err := f.SetCellValue(SheetName, footer, t.Footer); err != nil {
		return fmt.Errorf("set footer: %w", err)
	}
	if err := f.SetCellStyle(SheetName, footer, footer, styles.footer); err != nil {
		return fmt.Errorf("style footer: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("width of column %s: %w", col, err)
		}
	}
	if err := f.SetHeaderFooter(SheetName, &excelize.HeaderFooterOptions{
		OddHeader: "&C" + t.Title,
		OddFooter: "&C&P / &N",
	}); err != nil {
		return fmt.Errorf("set page header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeHeading fills the merged title and period rows and the column header.
func writeHeading(f *excelize.File, t Table, last string, styles sheetStyles) error {
	for i, line := range []string{t.Title, t.Period} {
		from, to := fmt.Sprintf("A%d", i+1), fmt.Sprintf("%s%d", last, i+1)
		if err := f.SetCellValue(SheetName, from, line); err != nil {
			return fmt.Errorf("set %s: %w", from, err)
		}
		if err := f.MergeCell(SheetName, from, to); err != nil {
			return fmt.Errorf("merge %s:%s: %w", from, to, err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", styles.title); err != nil {
		return fmt.Errorf("style title: %w", err)
	}

	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(SheetName, cell, col); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	from, to := fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", last, headerRow)
	if err := f.SetCellStyle(SheetName, from, to, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

type sheetStyles struct {
	title, header, employee, total, cell, footer int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "top", Color: "#DDDDDD", Style: 1},
		{Type: "bottom", Color: "#DDDDDD", Style: 1},
		{Type: "left", Color: "#DDDDDD", Style: 1},
		{Type: "right", Color: "#DDDDDD", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 14}},
		{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F0F0F0"}, Pattern: 1},
			Border:    border,
			Alignment: center,
		},
		{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F8F9FA"}, Pattern: 1},
			Border: border,
		},
		{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E9ECEF"}, Pattern: 1},
			Border: border,
		},
		{Border: border, Alignment: center},
		{Font: &excelize.Font{Size: 9, Color: "#666666"}},
	}

	var s sheetStyles
	targets := []*int{&s.title, &s.header, &s.employee, &s.total, &s.cell, &s.footer}
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return sheetStyles{}, fmt.Errorf("create style: %w", err)
		}
		*targets[i] = id
	}
	return s, nil
}
