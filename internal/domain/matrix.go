package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RepaymentTier maps obligations up to UpperBound (inclusive) to a fixed
// weekly principal installment. A zero Weekly means the whole amount is due
// in a single installment. The final tier of a matrix is open-ended and has
// a zero UpperBound.
type RepaymentTier struct {
	UpperBound decimal.Decimal
	Weekly     decimal.Decimal
}

// RepaymentMatrix is the ordered tier table injected through configuration.
// It is a value, not a package constant, so tests and deployments can vary
// it without touching the schedule algorithm.
type RepaymentMatrix struct {
	tiers []RepaymentTier
}

// NewRepaymentMatrix validates and builds a matrix from ordered tiers:
// upper bounds strictly ascending, exactly one open-ended final tier.
func NewRepaymentMatrix(tiers []RepaymentTier) (*RepaymentMatrix, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("repayment matrix requires at least one tier")
	}

	prev := decimal.Zero
	for i, tier := range tiers {
		last := i == len(tiers)-1
		if last {
			if !tier.UpperBound.IsZero() {
				return nil, fmt.Errorf("final repayment tier must be open-ended")
			}
			if !tier.Weekly.IsPositive() {
				return nil, fmt.Errorf("open-ended repayment tier requires a positive weekly amount")
			}
			continue
		}
		if !tier.UpperBound.GreaterThan(prev) {
			return nil, fmt.Errorf("repayment tier bounds must be strictly ascending, got %s after %s",
				tier.UpperBound, prev)
		}
		if tier.Weekly.IsNegative() {
			return nil, fmt.Errorf("repayment tier weekly amount cannot be negative")
		}
		prev = tier.UpperBound
	}

	return &RepaymentMatrix{tiers: tiers}, nil
}

// WeeklyFor returns the weekly principal installment for a total amount.
// Bounds are inclusive: an amount exactly on a tier's upper bound belongs to
// that tier. A pay-in-full tier returns the amount itself.
func (m *RepaymentMatrix) WeeklyFor(amount decimal.Decimal) decimal.Decimal {
	for i, tier := range m.tiers {
		last := i == len(m.tiers)-1
		if last || amount.LessThanOrEqual(tier.UpperBound) {
			if tier.Weekly.IsZero() {
				return amount
			}
			return tier.Weekly
		}
	}
	// unreachable: the constructor guarantees an open-ended final tier
	return amount
}

// Tiers returns a copy of the tier table.
func (m *RepaymentMatrix) Tiers() []RepaymentTier {
	out := make([]RepaymentTier, len(m.tiers))
	copy(out, m.tiers)
	return out
}
