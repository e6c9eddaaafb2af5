package export

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 0; padding: 15px; font-size: 10px; line-height: 1.2; }
  h1 { font-size: 14px; margin: 0 0 8px 0; }
  .date-range { margin: 0 0 15px 0; color: #333; font-size: 11px; }
  table { width: 100%; border-collapse: collapse; margin: 10px 0; border: 1px solid #ddd; }
  th { background-color: #f0f0f0; text-align: center; padding: 4px 6px; border: 1px solid #ddd; }
  td { padding: 4px 6px; border: 1px solid #eee; text-align: center; }
  td:last-child { text-align: right; }
  tr.employee td { background-color: #f8f9fa; font-weight: bold; text-align: left; }
  tr.total td, tr.grand-total td { font-weight: bold; }
  tr.total td:first-child, tr.grand-total td:first-child { text-align: right; }
  tr.grand-total td { background-color: #e9ecef; }
  .footer { margin-top: 15px; text-align: right; font-size: 9px; color: #666; border-top: 1px solid #eee; padding-top: 5px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="date-range">{{.Period}}</div>
<table>
<thead>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Rows}}
{{- if eq .Kind.String "employee"}}
<tr class="employee"><td colspan="{{len .Cells}}">{{index .Cells 0}}</td></tr>
{{- else if .Kind.IsTotal}}
<tr class="{{.Kind}}"><td colspan="4">{{index .Cells 0}}</td>{{range slice .Cells 4}}<td>{{.}}</td>{{end}}</tr>
{{- else}}
<tr>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
{{- end}}
</tbody>
</table>
<div class="footer">{{.Footer}}</div>
</body>
</html>
`))

// WriteHTML writes t as a printable HTML page.
func WriteHTML(w io.Writer, t Table) error {
	return pageTemplate.Execute(w, t)
}
