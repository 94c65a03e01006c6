package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Posting categories understood by the central ledger.
const (
	CategoryDriverLoan    = "driver_loan"
	CategoryVehicleRepair = "vehicle_repair"
)

// PostingRequest asks the ledger to open an obligation entry for one
// installment. ReferenceID is the installment id and must be unique per
// posting; the ledger applies payroll deductions against the entry and
// calls back when the balance reaches zero or a payment is voided.
type PostingRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	DriverID    string          `json:"driver_id"`
	LeaseID     string          `json:"lease_id"`
	MedallionID *string         `json:"medallion_id,omitempty"`
}

// Posting is the ledger's record of money owed for one installment.
type Posting struct {
	ID string `json:"id"`
}

// Error is a ledger-side failure (validation or connectivity). The poster
// surfaces its message as a per-item batch failure, never as a batch-fatal
// error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ledger: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("ledger: %s", e.Message)
}

// Adapter is the boundary to the central ledger. Balance math and payment
// application live on the other side of it.
type Adapter interface {
	// CreateObligation posts one installment's total due to the ledger
	// and returns the posting reference.
	CreateObligation(ctx context.Context, req PostingRequest) (*Posting, error)

	// VoidPosting reverses a posting, used by the remapping path.
	VoidPosting(ctx context.Context, postingID, reason, userID string) error
}
