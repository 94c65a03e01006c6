package domain

// PostInstallmentsRequest selects installments for a posting batch. Exactly
// one selector must be set: an explicit id list, or everything currently due.
type PostInstallmentsRequest struct {
	InstallmentIDs []string `json:"installment_ids,omitempty"`
	PostAllDue     bool     `json:"post_all_due,omitempty"`
}

// ItemResult is the outcome for a single installment within a batch. A
// failed item carries the failure reason; a successful one carries the
// ledger posting reference.
type ItemResult struct {
	InstallmentID string `json:"installment_id"`
	Success       bool   `json:"success"`
	PostingRef    string `json:"posting_ref,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BatchResult aggregates per-item outcomes. A batch with failures is still a
// successful batch: callers read the counts and the per-item details.
type BatchResult struct {
	TotalProcessed  int          `json:"total_processed"`
	SuccessfulPosts int          `json:"successful_posts"`
	FailedPosts     int          `json:"failed_posts"`
	Results         []ItemResult `json:"results"`
}

// AddSuccess records a successfully posted installment.
func (r *BatchResult) AddSuccess(installmentID, postingRef string) {
	r.TotalProcessed++
	r.SuccessfulPosts++
	r.Results = append(r.Results, ItemResult{
		InstallmentID: installmentID,
		Success:       true,
		PostingRef:    postingRef,
	})
}

// AddFailure records a per-item failure without affecting the rest of the
// batch.
func (r *BatchResult) AddFailure(installmentID, reason string) {
	r.TotalProcessed++
	r.FailedPosts++
	r.Results = append(r.Results, ItemResult{
		InstallmentID: installmentID,
		Error:         reason,
	})
}

// Ledger event types delivered to the internal callback hook.
const (
	LedgerEventInstallmentPaid     = "installment.paid"
	LedgerEventInstallmentReopened = "installment.reopened"
)

// LedgerEvent is the callback payload the ledger sends when a posted
// installment's balance reaches zero or one of its payments is voided.
type LedgerEvent struct {
	Type          string `json:"type" validate:"required,oneof=installment.paid installment.reopened"`
	InstallmentID string `json:"installment_id" validate:"required"`
}
