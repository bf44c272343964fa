// Package http provides the JSON API server and its handlers.
//
// This file implements request decoding: JSON bodies, period query
// parameters, dates and amounts.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current UTC month for missing values. Malformed numbers are rejected.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	now = now.UTC()
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, fmt.Errorf("%w: year %q", errBadRequest, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, fmt.Errorf("%w: month %q", errBadRequest, v)
		}
		params.Month = m
	}
	return params, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// parseInstant accepts RFC 3339 timestamps and plain YYYY-MM-DD dates; the
// latter mean midnight UTC.
func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", errBadRequest, s)
	}
	return t, nil
}

// parseOptionalInstant returns the zero time for blank input.
func parseOptionalInstant(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseInstant(s)
}

// parseAmount accepts dot or comma decimals; see core.ParseMoney.
func parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount %q: %w", s, err)
	}
	return m, nil
}

// parseOptionalAmount allows zero and blank values, as for a contract's
// initial paid amount.
func parseOptionalAmount(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Money{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || d.IsNegative() {
		return core.Money{}, fmt.Errorf("amount %q: %w", s, core.ErrInvalidAmount)
	}
	return core.MoneyFromDecimal(d), nil
}

func parseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate %q: %w", s, core.ErrInvalidRate)
	}
	return d, nil
}

// parseStatus maps a raw status onto the closed set; blank means Pending.
// Unknown non-blank values are rejected rather than silently mapped.
func parseStatus(s string) (core.SettlementStatus, error) {
	st := core.ParseSettlementStatus(s)
	if st == core.StatusPending {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "pending", "pendente":
		default:
			return "", fmt.Errorf("status %q: %w", s, core.ErrInvalidStatus)
		}
	}
	return st, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
