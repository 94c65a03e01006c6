package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InstallmentStatusScheduled = "scheduled"
	InstallmentStatusDue       = "due"
	InstallmentStatusPosted    = "posted"
	InstallmentStatusPaid      = "paid"
)

// Installment is one weekly slice of an obligation's repayment schedule.
// The stored status only ever moves scheduled -> posted -> paid, with paid
// -> posted as the single allowed reversal (payment voided). "due" is a
// presentation status derived from the week-start date, never persisted.
type Installment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	InstallmentID    string          `json:"installment_id" db:"installment_id"`
	ObligationID     string          `json:"obligation_id" db:"obligation_id"`
	Seq              int             `json:"seq" db:"seq"`
	WeekStart        time.Time       `json:"week_start" db:"week_start"`
	WeekEnd          time.Time       `json:"week_end" db:"week_end"`
	Principal        decimal.Decimal `json:"principal" db:"principal"`
	Interest         decimal.Decimal `json:"interest" db:"interest"`
	TotalDue         decimal.Decimal `json:"total_due" db:"total_due"`
	Status           string          `json:"status" db:"status"`
	LedgerPostingRef *string         `json:"ledger_posting_ref,omitempty" db:"ledger_posting_ref"`
	PostedOn         *time.Time      `json:"posted_on,omitempty" db:"posted_on"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// DueAsOf reports whether a scheduled installment has reached its posting
// window on the given date.
func (i *Installment) DueAsOf(date time.Time) bool {
	return i.Status == InstallmentStatusScheduled && !i.WeekStart.After(date)
}

// DisplayStatus returns the status with "scheduled" promoted to "due" once
// the week-start date has been reached.
func (i *Installment) DisplayStatus(date time.Time) string {
	if i.DueAsOf(date) {
		return InstallmentStatusDue
	}
	return i.Status
}
