package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/server/handlers"
	"github.com/Tiliavir/shiftpay/internal/server/router"
	"github.com/Tiliavir/shiftpay/internal/storage"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

const anaShift = `{
  "employeeId": "ana",
  "employeeName": "Ana",
  "date": "2025-11-03",
  "entryTime": "09:00",
  "exitTime": "17:00",
  "dailyRate": 150,
  "extraHours": "01:00",
  "extraHoursRate": 30
}`

func newEngine(t *testing.T) http.Handler {
	t.Helper()
	store := storage.New(t.TempDir(), time.UTC)
	clock := func() time.Time { return time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC) }
	svc := timesheet.NewService(store, nil, timesheet.WithClock(clock))
	return router.New(handlers.New(svc, nil), nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	rec := do(t, newEngine(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body)
	}
}

func TestCreateAndReport(t *testing.T) {
	h := newEngine(t)

	rec := do(t, h, http.MethodPost, "/api/entries", anaShift)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	created := decode[model.NormalizedTimeEntry](t, rec)
	if created.ID == "" || created.TotalPay != 180 || created.TotalHours != 9 || created.Approval != model.StatePending {
		t.Errorf("created = %+v", created)
	}

	rec = do(t, h, http.MethodGet, "/api/reports?start=2025-11-03&end=2025-11-09", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report = %d %s", rec.Code, rec.Body)
	}
	res := decode[report.Result](t, rec)
	if len(res.Reports) != 1 || res.Reports[0].Totals != (model.Totals{DaysWorked: 1, RegularHours: 8, ExtraHours: 1, TotalHours: 9, TotalPay: 180}) {
		t.Errorf("reports = %+v", res.Reports)
	}

	rec = do(t, h, http.MethodGet, "/api/employees", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"data":[{"id":"ana","name":"Ana"}]}` {
		t.Errorf("employees = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/reports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("default week report = %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"start":"2025-11-03"`) {
		t.Errorf("default range is not the current week: %s", rec.Body)
	}
}

func TestReportBadRequests(t *testing.T) {
	h := newEngine(t)
	for _, path := range []string{
		"/api/reports?start=2025-11-09&end=2025-11-03",
		"/api/reports?start=03/11/2025",
		"/api/reports?status=maybe",
		"/api/reports/export?format=pdf",
	} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rec.Code)
		}
	}
}

func TestPreviewValidation(t *testing.T) {
	h := newEngine(t)

	rec := do(t, h, http.MethodPost, "/api/entries/preview", strings.Replace(anaShift, `"dailyRate": 150,`, "", 1))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("preview = %d %s", rec.Code, rec.Body)
	}
	if body := decode[map[string]string](t, rec); body["field"] != "dailyRate" {
		t.Errorf("field = %q", body["field"])
	}

	rec = do(t, h, http.MethodPost, "/api/entries/preview", strings.Replace(anaShift, `"17:00"`, `"02:00"`, 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("preview = %d %s", rec.Code, rec.Body)
	}
	if n := decode[model.NormalizedTimeEntry](t, rec); n.WorkedHours != 17 || n.TotalPay != 180 {
		t.Errorf("cross-midnight preview = %+v", n)
	}

	if rec := do(t, h, http.MethodPost, "/api/entries/preview", `{"employeeId": "ana"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing entryTime = %d, want 400", rec.Code)
	}
}

func TestExport(t *testing.T) {
	h := newEngine(t)
	do(t, h, http.MethodPost, "/api/entries", anaShift)

	rec := do(t, h, http.MethodGet, "/api/reports/export?format=csv&start=2025-11-03&end=2025-11-09", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=registros_2025-11-03_a_2025-11-09.csv" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), `"R$ 180,00"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestReviewAndDelete(t *testing.T) {
	h := newEngine(t)
	created := decode[model.NormalizedTimeEntry](t, do(t, h, http.MethodPost, "/api/entries", anaShift))
	path := "/api/entries/" + created.ID

	if rec := do(t, h, http.MethodPost, path+"/reject", `{"reason": " "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("reject without reason = %d, want 400", rec.Code)
	}
	rec := do(t, h, http.MethodPost, path+"/reject", `{"reason": "falta assinatura"}`)
	if got := decode[model.RawTimeEntry](t, rec); rec.Code != http.StatusOK || got.Approval != model.StateRejected || got.RejectionReason != "falta assinatura" {
		t.Errorf("reject = %d %+v", rec.Code, got)
	}
	rec = do(t, h, http.MethodPost, path+"/approve", "")
	if got := decode[model.RawTimeEntry](t, rec); rec.Code != http.StatusOK || got.Approval != model.StateApproved {
		t.Errorf("approve = %d %+v", rec.Code, got)
	}

	rec = do(t, h, http.MethodPut, path, strings.Replace(anaShift, `"extraHours": "01:00"`, `"extraHours": 2`, 1))
	if got := decode[model.NormalizedTimeEntry](t, rec); rec.Code != http.StatusOK || got.TotalPay != 210 || got.Approval != model.StateApproved {
		t.Errorf("update = %d %+v", rec.Code, got)
	}

	if rec := do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}
