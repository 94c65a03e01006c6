package repository

import (
	"context"
	"time"

	"github.com/fleetcab/billing-engine/internal/domain"
)

// ObligationRepository defines the interface for obligation data operations
type ObligationRepository interface {
	// CreateWithSchedule persists an obligation together with its full
	// installment schedule in one transaction.
	CreateWithSchedule(ctx context.Context, obligation *domain.Obligation, installments []*domain.Installment) error

	// GetByObligationID retrieves an obligation by its human-readable ID
	GetByObligationID(ctx context.Context, obligationID string) (*domain.Obligation, error)

	// NextSeq allocates the next per-kind, per-year identifier sequence
	NextSeq(ctx context.Context, kind string, year int) (int, error)

	// UpdateStatusCAS moves an obligation from one status to another;
	// returns false when the obligation was not in the expected status.
	UpdateStatusCAS(ctx context.Context, obligationID, from, to string) (bool, error)
}

// PostingTx is a transaction scoped to one posting batch. Rows fetched
// through GetForUpdate stay locked until Commit or Rollback, which is the
// guard against two concurrent "post all due" runs claiming the same
// installment.
type PostingTx interface {
	// GetForUpdate fetches an installment with a row-level lock.
	GetForUpdate(ctx context.Context, installmentID string) (*domain.Installment, error)

	// MarkPosted records the ledger posting reference and moves the
	// installment scheduled -> posted. Returns false if the installment
	// was no longer scheduled.
	MarkPosted(ctx context.Context, installmentID, postingRef string, postedOn time.Time) (bool, error)

	Commit() error
	Rollback() error
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// BeginPosting opens the batch transaction used by the poster.
	BeginPosting(ctx context.Context) (PostingTx, error)

	// GetByInstallmentID retrieves an installment by its derived ID
	GetByInstallmentID(ctx context.Context, installmentID string) (*domain.Installment, error)

	// ListByObligation retrieves an obligation's schedule in sequence order
	ListByObligation(ctx context.Context, obligationID string) ([]*domain.Installment, error)

	// ListDue retrieves every scheduled installment whose week has started
	// and whose parent obligation is open, ordered by obligation then
	// week start.
	ListDue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error)

	// UpdateStatusCAS moves an installment from one status to another;
	// returns false when the installment was not in the expected status.
	UpdateStatusCAS(ctx context.Context, installmentID, from, to string) (bool, error)

	// CountNotPaid counts an obligation's installments that are not yet
	// paid, used for closure propagation.
	CountNotPaid(ctx context.Context, obligationID string) (int, error)
}
