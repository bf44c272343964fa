package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

type testServer struct {
	*Server
	exporter *sheetsmem.Exporter
}

func newTestServer(t *testing.T, opts Options, withExporter bool) testServer {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := memory.New().WithClock(clock)
	exporter := sheetsmem.New()

	reports := services.NewReportService(store, store, store, nil)
	if withExporter {
		reports = services.NewReportService(store, store, store, exporter)
	}
	svc := Services{
		Ledger:    services.NewLedgerService(store, store, nil),
		Reports:   reports,
		Debts:     services.NewDebtService(store, store, nil).WithClock(clock),
		Reminders: services.NewReminderService(store, services.DefaultUndatedReminderTTL).WithClock(clock),
	}

	opts.Logger = log.New(log.Config{Output: io.Discard})
	opts.Now = clock
	s := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return testServer{Server: s, exporter: exporter}
}

func (ts testServer) do(t *testing.T, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	ts.Handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	if w := ts.do(t, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusOK {
		t.Errorf("readyz = %d", w.Code)
	}

	failing := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }}, false)
	if w := failing.do(t, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing storage = %d", w.Code)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	tests := []struct {
		name    string
		session string
	}{
		{"missing", ""},
		{"blank", "   "},
		{"control characters", "abc\x01"},
		{"too long", strings.Repeat("s", maxSessionLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, "/api/transactions", tt.session, "")
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if body := decodeBody[errorBody](t, w); body.Error == "" {
				t.Errorf("missing error message")
			}
		})
	}
}

func TestResponseCarriesSecurityAndTraceHeaders(t *testing.T) {
	ts := newTestServer(t, Options{}, false)
	w := ts.do(t, http.MethodGet, "/healthz", "", "")

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff header")
	}
	if id := w.Header().Get("X-Request-ID"); !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-ID = %q", id)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	w := ts.do(t, http.MethodPost, "/api/transactions", "s1",
		`{"kind":"income","amount":"3000","category":"Salary","occurred_at":"2025-06-05","status":"received"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create income = %d %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPost, "/api/transactions", "s1",
		`{"kind":"expense","amount":"120,50","category":"Food","description":"Groceries","occurred_at":"2025-06-10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create expense = %d %s", w.Code, w.Body.String())
	}
	expense := decodeBody[transactionDTO](t, w)
	if expense.Amount.Cents != 12050 || expense.Status != "pending" || expense.Settled {
		t.Fatalf("expense = %+v", expense)
	}

	w = ts.do(t, http.MethodGet, "/api/transactions?year=2025&month=6", "s1", "")
	if list := decodeBody[[]transactionDTO](t, w); len(list) != 2 {
		t.Fatalf("list = %+v", list)
	}

	w = ts.do(t, http.MethodPost, "/api/transactions/"+expense.ID+"/toggle", "s1", "")
	if toggled := decodeBody[transactionDTO](t, w); toggled.Status != "paid" || !toggled.Settled {
		t.Fatalf("toggled = %+v", toggled)
	}

	w = ts.do(t, http.MethodPatch, "/api/transactions/"+expense.ID, "s1", `{"amount":"100"}`)
	if edited := decodeBody[transactionDTO](t, w); edited.Amount.Value != "100.00" {
		t.Fatalf("edited = %+v", edited)
	}

	w = ts.do(t, http.MethodGet, "/api/reports/period?year=2025&month=6", "s1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("report = %d", w.Code)
	}
	report := decodeBody[periodReportDTO](t, w)
	if report.Period != "2025-06" || report.Rollup.PeriodResult.Cents != 290000 {
		t.Errorf("report rollup = %+v", report.Rollup)
	}
	if len(report.Categories) != 2 || report.Categories[0].Category != "Salary" {
		t.Errorf("categories = %+v", report.Categories)
	}

	if w := ts.do(t, http.MethodDelete, "/api/transactions/"+expense.ID, "s1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/transactions/"+expense.ID, "s1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted = %d", w.Code)
	}
}

func TestTransactionErrors(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zero amount", http.MethodPost, "/api/transactions", `{"kind":"expense","amount":"0"}`, http.StatusBadRequest},
		{"unknown kind", http.MethodPost, "/api/transactions", `{"kind":"transfer","amount":"1"}`, http.StatusBadRequest},
		{"status for wrong kind", http.MethodPost, "/api/transactions", `{"kind":"expense","amount":"1","status":"received"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/transactions", `{"kind":"expense","amount":"1","owner":"x"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/transactions", `{"kind":"expense","amount":"1","occurred_at":"10/06/2025"}`, http.StatusBadRequest},
		{"invalid month", http.MethodGet, "/api/transactions?month=13", "", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/api/transactions/missing", "", http.StatusNotFound},
		{"toggle unknown id", http.MethodPost, "/api/transactions/missing/toggle", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, "s1", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	w := ts.do(t, http.MethodPost, "/api/transactions", "alice", `{"kind":"expense","amount":"10","occurred_at":"2025-06-01"}`)
	tx := decodeBody[transactionDTO](t, w)

	if w := ts.do(t, http.MethodGet, "/api/transactions/"+tx.ID, "bob", ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign get = %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/transactions?year=2025&month=6", "bob", "")
	if list := decodeBody[[]transactionDTO](t, w); len(list) != 0 {
		t.Errorf("bob sees %d transactions", len(list))
	}
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	w := ts.do(t, http.MethodGet, "/api/categories?kind=income", "s1", "")
	cats := decodeBody[[]categoryDTO](t, w)
	if len(cats) != 5 || !cats[0].IsDefault {
		t.Fatalf("seeded income categories = %+v", cats)
	}

	w = ts.do(t, http.MethodPost, "/api/categories", "s1", `{"name":"Bonus","kind":"income"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	created := decodeBody[categoryDTO](t, w)

	if w := ts.do(t, http.MethodPost, "/api/categories", "s1", `{"name":"Bonus","kind":"income"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/categories", "s1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing kind = %d", w.Code)
	}
	if w := ts.do(t, http.MethodDelete, "/api/categories/"+created.ID, "s1", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
}

func TestContractPaymentFlow(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	w := ts.do(t, http.MethodPost, "/api/contracts", "s1",
		`{"type":"financing","description":"Car","category":"carro","total_amount":"12000","installment_count":12,"monthly_interest_rate":"1","start_date":"2025-01-10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	c := decodeBody[contractDTO](t, w)
	if c.Category != "car" || c.State != "open" || c.Remaining.Cents != 1200000 {
		t.Fatalf("contract = %+v", c)
	}

	w = ts.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/payments", "s1", `{"amount":"1000"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("payment = %d %s", w.Code, w.Body.String())
	}
	paid := decodeBody[paymentDTO](t, w)
	if paid.Contract.InstallmentsPaid != 1 || paid.Contract.PaidAmount.Cents != 100000 {
		t.Errorf("paid contract = %+v", paid.Contract)
	}
	if paid.Entry.Category != "Financing Payment" || paid.Entry.Status != "paid" || paid.Entry.ContractID != c.ID {
		t.Errorf("ledger entry = %+v", paid.Entry)
	}

	w = ts.do(t, http.MethodGet, "/api/contracts/"+c.ID+"/reconciliation", "s1", "")
	if rec := decodeBody[reconciliationDTO](t, w); !rec.Consistent || rec.Entries != 1 {
		t.Errorf("reconciliation = %+v", rec)
	}

	w = ts.do(t, http.MethodGet, "/api/contracts/summary", "s1", "")
	if sum := decodeBody[summaryDTO](t, w); sum.Remaining.Cents != 1100000 || sum.OpenCount != 1 {
		t.Errorf("summary = %+v", sum)
	}

	w = ts.do(t, http.MethodGet, "/api/contracts/financings", "s1", "")
	if groups := decodeBody[map[string][]contractDTO](t, w); len(groups["car"]) != 1 {
		t.Errorf("financings = %+v", groups)
	}

	w = ts.do(t, http.MethodGet, "/api/transactions", "s1", "")
	if list := decodeBody[[]transactionDTO](t, w); len(list) != 1 {
		t.Errorf("payment entry missing from current month: %+v", list)
	}

	w = ts.do(t, http.MethodPatch, "/api/contracts/"+c.ID, "s1", `{"description":"Family car"}`)
	if edited := decodeBody[contractDTO](t, w); edited.Description != "Family car" || edited.Version <= c.Version {
		t.Errorf("edited = %+v", edited)
	}

	if w := ts.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/payments", "s1", `{"amount":"-5"}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative payment = %d", w.Code)
	}
	if w := ts.do(t, http.MethodDelete, "/api/contracts/"+c.ID, "s1", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/contracts/"+c.ID+"/payments", "s1", `{"amount":"5"}`); w.Code != http.StatusNotFound {
		t.Errorf("payment on deleted contract = %d", w.Code)
	}
}

func TestSimulate(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	tests := []struct {
		name           string
		query          string
		wantComputable bool
		wantInstallment string
	}{
		{"annuity", "principal=10000&rate=1&installments=12", true, "888.49"},
		{"zero rate", "principal=1200&rate=0&installments=12", true, "100.00"},
		{"missing installments", "principal=1000&rate=1", false, ""},
		{"garbage", "principal=abc&rate=1&installments=3", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, "/api/simulate?"+tt.query, "s1", "")
			sim := decodeBody[simulationDTO](t, w)
			if sim.Computable != tt.wantComputable {
				t.Fatalf("computable = %v", sim.Computable)
			}
			if tt.wantComputable && sim.Installment.Value != tt.wantInstallment {
				t.Errorf("installment = %s, want %s", sim.Installment.Value, tt.wantInstallment)
			}
		})
	}
}

func TestReminders(t *testing.T) {
	ts := newTestServer(t, Options{}, false)

	w := ts.do(t, http.MethodPost, "/api/reminders", "s1", `{"description":"Pay rent","at":"2025-06-30","lead_time":"3 days"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create dated = %d %s", w.Code, w.Body.String())
	}
	dated := decodeBody[reminderDTO](t, w)

	w = ts.do(t, http.MethodPost, "/api/reminders", "s1", `{"description":"Cancel gym"}`)
	undated := decodeBody[reminderDTO](t, w)
	if undated.Dated {
		t.Fatalf("undated reminder reported as dated")
	}

	w = ts.do(t, http.MethodGet, "/api/reminders?year=2025&month=6", "s1", "")
	if list := decodeBody[[]reminderDTO](t, w); len(list) != 1 || list[0].ID != dated.ID {
		t.Errorf("dated list = %+v", list)
	}
	w = ts.do(t, http.MethodGet, "/api/reminders?year=2025&month=7", "s1", "")
	if list := decodeBody[[]reminderDTO](t, w); len(list) != 0 {
		t.Errorf("july list = %+v", list)
	}

	w = ts.do(t, http.MethodPatch, "/api/reminders/"+undated.ID, "s1", `{"description":"Cancel gym membership"}`)
	if got := decodeBody[reminderDTO](t, w); got.Description != "Cancel gym membership" {
		t.Errorf("updated = %+v", got)
	}
	if w := ts.do(t, http.MethodPatch, "/api/reminders/"+dated.ID, "s1", `{"description":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("update dated = %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/reminders", "s1", `{"description":" "}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank description = %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/reports/dashboard?year=2025&month=6", "s1", "")
	d := decodeBody[dashboardDTO](t, w)
	if len(d.Reminders) != 1 || len(d.UndatedReminders) != 1 {
		t.Errorf("dashboard reminders = %+v", d)
	}

	if w := ts.do(t, http.MethodDelete, "/api/reminders/"+undated.ID, "s1", ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	w = ts.do(t, http.MethodGet, "/api/reminders/undated", "s1", "")
	if list := decodeBody[[]reminderDTO](t, w); len(list) != 0 {
		t.Errorf("undated after delete = %+v", list)
	}
}

func TestYearNetIncome(t *testing.T) {
	ts := newTestServer(t, Options{}, false)
	ts.do(t, http.MethodPost, "/api/transactions", "s1", `{"kind":"income","amount":"500","occurred_at":"2025-02-01"}`)
	ts.do(t, http.MethodPost, "/api/transactions", "s1", `{"kind":"expense","amount":"200","occurred_at":"2025-02-03"}`)

	w := ts.do(t, http.MethodGet, "/api/reports/year?year=2025", "s1", "")
	y := decodeBody[yearDTO](t, w)
	if len(y.Months) != 12 {
		t.Fatalf("months = %d", len(y.Months))
	}
	if y.Months[1].Net.Cents != 30000 || y.Months[0].Net.Cents != 0 {
		t.Errorf("months = %+v", y.Months[:2])
	}
}

func TestExportPeriod(t *testing.T) {
	disabled := newTestServer(t, Options{}, false)
	if w := disabled.do(t, http.MethodPost, "/api/reports/export", "s1", `{"year":2025,"month":6}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("export without exporter = %d", w.Code)
	}

	ts := newTestServer(t, Options{}, true)
	ts.do(t, http.MethodPost, "/api/transactions", "s1", `{"kind":"expense","amount":"42","category":"Food","occurred_at":"2025-06-02"}`)

	w := ts.do(t, http.MethodPost, "/api/reports/export", "s1", `{}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("export = %d %s", w.Code, w.Body.String())
	}
	rows := ts.exporter.Rows("s1", "2025-06")
	if len(rows) != 2 || rows[0][2] != "Food" {
		t.Errorf("exported rows = %v", rows)
	}
	if w := ts.do(t, http.MethodPost, "/api/reports/export", "s1", `{"year":2025,"month":13}`); w.Code != http.StatusBadRequest {
		t.Errorf("export month 13 = %d", w.Code)
	}
}

func TestRateLimitPerSession(t *testing.T) {
	ts := newTestServer(t, Options{RateLimit: ratelimit.Config{RequestsPerWindow: 2, Window: time.Minute, MaxKeys: 10}}, false)

	for i := 0; i < 2; i++ {
		if w := ts.do(t, http.MethodGet, "/api/contracts", "busy", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := ts.do(t, http.MethodGet, "/api/contracts", "busy", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if w := ts.do(t, http.MethodGet, "/api/contracts", "quiet", ""); w.Code != http.StatusOK {
		t.Errorf("other session limited: %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Errorf("health limited: %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/metrics", "", "")
	m := decodeBody[metricsDTO](t, w)
	if m.RateLimitRejected != 1 || m.ActiveSessions != 2 {
		t.Errorf("metrics = %+v", m)
	}
}
