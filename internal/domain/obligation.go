package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ObligationStatusDraft     = "draft"
	ObligationStatusOpen      = "open"
	ObligationStatusHold      = "hold"
	ObligationStatusClosed    = "closed"
	ObligationStatusCancelled = "cancelled"
)

const (
	ObligationKindLoan   = "loan"
	ObligationKindRepair = "repair"
)

// Obligation is a lump amount owed by a driver, repaid through weekly
// payroll deductions. Loans and repairs share the same lifecycle; repairs
// carry no interest and may omit the medallion reference.
type Obligation struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ObligationID string          `json:"obligation_id" db:"obligation_id"`
	Kind         string          `json:"kind" db:"kind"`
	Principal    decimal.Decimal `json:"principal" db:"principal"`
	InterestRate decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	StartWeek    time.Time       `json:"start_week" db:"start_week"`
	OriginatedOn time.Time       `json:"originated_on" db:"originated_on"`
	DriverID     string          `json:"driver_id" db:"driver_id"`
	LeaseID      string          `json:"lease_id" db:"lease_id"`
	VehicleID    string          `json:"vehicle_id" db:"vehicle_id"`
	MedallionID  *string         `json:"medallion_id,omitempty" db:"medallion_id"`
	Status       string          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// SupportsInterest reports whether this obligation kind accrues interest.
// Repairs never do, regardless of the stored rate.
func (o *Obligation) SupportsInterest() bool {
	return o.Kind == ObligationKindLoan
}

// DTOs for requests and responses

type CreateObligationRequest struct {
	Kind         string          `json:"kind" validate:"required,oneof=loan repair"`
	Principal    decimal.Decimal `json:"principal" validate:"required,decimal_gt=0"`
	InterestRate decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0"`
	StartWeek    time.Time       `json:"start_week" validate:"required"`
	OriginatedOn time.Time       `json:"originated_on" validate:"required"`
	DriverID     string          `json:"driver_id" validate:"required"`
	LeaseID      string          `json:"lease_id" validate:"required"`
	VehicleID    string          `json:"vehicle_id" validate:"required"`
	MedallionID  string          `json:"medallion_id"`
}

type CreateObligationResponse struct {
	Obligation *Obligation    `json:"obligation"`
	Schedule   []*Installment `json:"schedule"`
}

type ScheduleResponse struct {
	ObligationID string         `json:"obligation_id"`
	Schedule     []*Installment `json:"schedule"`
}
