package core

import (
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		year, month int
		wantEnd     time.Time
	}{
		{2025, 1, time.Date(2025, 1, 31, 23, 59, 59, 999000000, time.UTC)},
		{2024, 2, time.Date(2024, 2, 29, 23, 59, 59, 999000000, time.UTC)},
		{2025, 2, time.Date(2025, 2, 28, 23, 59, 59, 999000000, time.UTC)},
		{2025, 12, time.Date(2025, 12, 31, 23, 59, 59, 999000000, time.UTC)},
	}
	for _, tt := range tests {
		p := ResolvePeriod(tt.year, tt.month)
		wantStart := time.Date(tt.year, time.Month(tt.month), 1, 0, 0, 0, 0, time.UTC)
		if !p.Start.Equal(wantStart) {
			t.Errorf("%d-%02d start = %v, want %v", tt.year, tt.month, p.Start, wantStart)
		}
		if !p.End.Equal(tt.wantEnd) {
			t.Errorf("%d-%02d end = %v, want %v", tt.year, tt.month, p.End, tt.wantEnd)
		}
		if p.Start.Location() != time.UTC || p.End.Location() != time.UTC {
			t.Errorf("%d-%02d bounds not in UTC", tt.year, tt.month)
		}
	}
}

func TestPeriodContainsIgnoresCallerZone(t *testing.T) {
	p := ResolvePeriod(2025, 3)
	// 2025-03-31 22:30 in São Paulo is already April in UTC.
	sp := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2025, 3, 31, 22, 30, 0, 0, sp)
	if p.Contains(late) {
		t.Fatalf("expected %v to fall outside March in UTC", late)
	}
	if !p.Contains(time.Date(2025, 3, 31, 23, 59, 59, 999000000, time.UTC)) {
		t.Fatalf("last millisecond of the month must be included")
	}
	if p.Contains(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first instant of next month must be excluded")
	}
}

func TestValidateMonth(t *testing.T) {
	for _, m := range []int{0, 13, -1} {
		if err := ValidateMonth(m); err != ErrInvalidMonth {
			t.Errorf("ValidateMonth(%d) = %v, want ErrInvalidMonth", m, err)
		}
	}
	if err := ValidateMonth(6); err != nil {
		t.Errorf("ValidateMonth(6) = %v", err)
	}
}
