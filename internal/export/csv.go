package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes t as CSV: the title and period lines, the column header,
// every row and the footer line.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	for _, record := range t.records() {
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
