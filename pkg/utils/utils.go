package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IsSunday reports whether a date falls on a Sunday.
func IsSunday(t time.Time) bool {
	return t.Weekday() == time.Sunday
}

// WeekEnd returns the last day of a billing week (start + 6 days).
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}

// DateOnly truncates a timestamp to midnight UTC so date comparisons ignore
// the time of day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// FormatObligationID builds the human-readable obligation identifier:
// a kind prefix, the origination year, and a zero-padded sequence,
// e.g. DL2026-0007.
func FormatObligationID(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%d-%04d", prefix, year, seq)
}

// FormatInstallmentID derives an installment identifier from its parent
// obligation and sequence, e.g. DL2026-0007-03.
func FormatInstallmentID(obligationID string, seq int) string {
	return fmt.Sprintf("%s-%02d", obligationID, seq)
}

// SimpleInterest computes non-compounding interest on an outstanding balance
// at an annual percentage rate over a number of elapsed days, on a 365-day
// year, rounded to 2 decimal places.
func SimpleInterest(outstanding, annualRatePct decimal.Decimal, elapsedDays int) decimal.Decimal {
	if elapsedDays <= 0 {
		return decimal.Zero
	}
	days := decimal.NewFromInt(int64(elapsedDays))
	yearDays := decimal.NewFromInt(365)
	hundred := decimal.NewFromInt(100)

	// single division keeps the intermediate exact before the final rounding
	return outstanding.
		Mul(annualRatePct).
		Mul(days).
		Div(hundred.Mul(yearDays)).
		Round(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
