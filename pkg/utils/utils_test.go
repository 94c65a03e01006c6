package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsSunday(t *testing.T) {
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsSunday(sunday))
	assert.False(t, IsSunday(sunday.AddDate(0, 0, 1)))
	assert.False(t, IsSunday(sunday.AddDate(0, 0, -1)))
	assert.True(t, IsSunday(sunday.AddDate(0, 0, 7)))
}

func TestWeekEnd(t *testing.T) {
	start := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	end := WeekEnd(start)

	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Saturday, end.Weekday())
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected int
	}{
		{
			name:     "same day",
			a:        time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2026, 1, 4, 23, 59, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "one week",
			a:        time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
			expected: 7,
		},
		{
			name:     "origination to first week end",
			a:        time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC),
			b:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			expected: 13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestFormatObligationID(t *testing.T) {
	assert.Equal(t, "DL2026-0007", FormatObligationID("DL", 2026, 7))
	assert.Equal(t, "RI2025-0123", FormatObligationID("RI", 2025, 123))
	assert.Equal(t, "DL2026-10000", FormatObligationID("DL", 2026, 10000))
}

func TestFormatInstallmentID(t *testing.T) {
	assert.Equal(t, "DL2026-0007-01", FormatInstallmentID("DL2026-0007", 1))
	assert.Equal(t, "DL2026-0007-12", FormatInstallmentID("DL2026-0007", 12))
	assert.Equal(t, "DL2026-0007-100", FormatInstallmentID("DL2026-0007", 100))
}

func TestSimpleInterest(t *testing.T) {
	tests := []struct {
		name        string
		outstanding string
		rate        string
		days        int
		expected    string
	}{
		{"week on 650 at 10 percent over 13 days", "650", "10", 13, "2.32"},
		{"week on 450 at 10 percent", "450", "10", 7, "0.86"},
		{"week on 250 at 10 percent", "250", "10", 7, "0.48"},
		{"week on 50 at 10 percent", "50", "10", 7, "0.10"},
		{"zero rate", "1000", "0", 7, "0"},
		{"zero days", "1000", "10", 0, "0"},
		{"negative days clamps to zero", "1000", "10", -3, "0"},
		{"full year at 10 percent", "1000", "10", 365, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outstanding, _ := decimal.NewFromString(tt.outstanding)
			rate, _ := decimal.NewFromString(tt.rate)
			expected, _ := decimal.NewFromString(tt.expected)

			result := SimpleInterest(outstanding, rate, tt.days)
			assert.True(t, result.Equal(expected),
				"expected %s, got %s", expected, result)
		})
	}
}
