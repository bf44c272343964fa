package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestParseMonthParams(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"both values provided", url.Values{"year": {"2024"}, "month": {"12"}}, 2024, 12, false},
		{"only month", url.Values{"month": {"3"}}, 2025, 3, false},
		{"empty uses current month", url.Values{}, 2025, 6, false},
		{"out of range month is passed through", url.Values{"month": {"13"}}, 2025, 13, false},
		{"malformed year", url.Values{"year": {"abc"}}, 0, 0, true},
		{"malformed month", url.Values{"month": {"x"}}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, fixedNow)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want bad request", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %+v, want %d-%d", got, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Amount string `json:"amount"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"amount":"10"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"amount":"10","extra":1}`, true},
		{"trailing data", `{"amount":"10"}{"amount":"1"}`, true},
		{"not json", `amount=10`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(req, &p)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Errorf("err = %v, want bad request", err)
			}
		})
	}
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-03-31", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), false},
		{"2025-03-31T23:30:00-03:00", time.Date(2025, 4, 1, 2, 30, 0, 0, time.UTC), false},
		{"31/03/2025", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseInstant(tt.in)
		if tt.wantErr != (err != nil) {
			t.Fatalf("parseInstant(%q) err = %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseInstant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got, err := parseOptionalInstant("  "); err != nil || !got.IsZero() {
		t.Errorf("parseOptionalInstant(blank) = %v, %v", got, err)
	}
}

func TestParseAmounts(t *testing.T) {
	if m, err := parseAmount("12,50"); err != nil || m.Cents != 1250 {
		t.Errorf("parseAmount = %v, %v", m, err)
	}
	if _, err := parseAmount("0"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("parseAmount(0) err = %v", err)
	}
	if m, err := parseOptionalAmount(""); err != nil || !m.IsZero() {
		t.Errorf("parseOptionalAmount(blank) = %v, %v", m, err)
	}
	if m, err := parseOptionalAmount("0"); err != nil || !m.IsZero() {
		t.Errorf("parseOptionalAmount(0) = %v, %v", m, err)
	}
	if _, err := parseOptionalAmount("-1"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("parseOptionalAmount(-1) err = %v", err)
	}
	if r, err := parseRate("1,2"); err != nil || r.String() != "1.2" {
		t.Errorf("parseRate = %v, %v", r, err)
	}
	if _, err := parseRate("abc"); !errors.Is(err, core.ErrInvalidRate) {
		t.Errorf("parseRate(abc) err = %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    core.SettlementStatus
		wantErr bool
	}{
		{"", core.StatusPending, false},
		{"pending", core.StatusPending, false},
		{"paid", core.StatusPaid, false},
		{"Recebido", core.StatusReceived, false},
		{"done", "", true},
	}
	for _, tt := range tests {
		got, err := parseStatus(tt.in)
		if tt.wantErr != (err != nil) || got != tt.want {
			t.Errorf("parseStatus(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Rent\x00 March\t "); got != "Rent March" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
