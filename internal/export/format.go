package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/shiftpay/internal/report"
)

// Format names a document format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatXLSX, FormatCSV, FormatHTML, FormatJSON}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want xlsx, csv, html or json)", s)
}

// ContentType returns the MIME type of documents in f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/json"
}

// FileName returns "registros_<start>_a_<end>.<ext>".
func FileName(rng report.Range, f Format) string {
	return fmt.Sprintf("registros_%s_a_%s.%s", rng.Start, rng.End, f)
}

// Render writes res to w in format f.
func Render(w io.Writer, f Format, res report.Result, generatedAt time.Time) error {
	if f == FormatJSON {
		return WriteJSON(w, res)
	}
	t := BuildTable(res.Reports, res.Range, generatedAt)
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatHTML:
		return WriteHTML(w, t)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes the full result, entries included.
func WriteJSON(w io.Writer, res report.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// SaveFile renders res into dir and returns the path written. The file is
// written to a temp file first and renamed into place.
func SaveFile(dir string, f Format, res report.Result, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(res.Range, f))

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := Render(tmp, f, res, generatedAt); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("render %s: %w", f, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return path, nil
}
