package sheets_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"

	"github.com/Tiliavir/shiftpay/internal/repository/sheets"
)

func newRepo(t *testing.T, handler http.HandlerFunc) *sheets.Repository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	repo, err := sheets.New(context.Background(), sheets.Config{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return repo
}

func TestAppendRows(t *testing.T) {
	var path, inputOption string
	var body struct {
		Values [][]any `json:"values"`
	}
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		inputOption = r.URL.Query().Get("valueInputOption")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"spreadsheetId": "sheet-1"}`)
	})

	rows := [][]any{{"Funcionário", "Data"}, {"Ana", "03/11/2025"}}
	if err := repo.AppendRows(context.Background(), "Registros!A1", rows); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}
	if path != "/v4/spreadsheets/sheet-1/values/Registros!A1:append" {
		t.Errorf("path = %q", path)
	}
	if inputOption != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q", inputOption)
	}
	if len(body.Values) != 2 || body.Values[1][0] != "Ana" {
		t.Errorf("values = %v", body.Values)
	}
}

func TestAppendRowsValidation(t *testing.T) {
	called := false
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	if err := repo.AppendRows(context.Background(), "", [][]any{{"x"}}); err == nil {
		t.Error("empty range accepted")
	}
	if err := repo.AppendRows(context.Background(), "A1", nil); err != nil {
		t.Errorf("no rows: %v", err)
	}
	if called {
		t.Error("request sent without anything to write")
	}
}

func TestReadRange(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"range": "Registros!A1:B2", "values": [["Ana", "8"], ["Bruno", "6"]]}`)
	})
	values, err := repo.ReadRange(context.Background(), "Registros!A1:B2")
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(values) != 2 || values[1][0] != "Bruno" {
		t.Errorf("values = %v", values)
	}
}

func TestNewRequiresSpreadsheet(t *testing.T) {
	if _, err := sheets.New(context.Background(), sheets.Config{}, nil, option.WithoutAuthentication()); err == nil {
		t.Error("expected error without spreadsheet id")
	}
}
