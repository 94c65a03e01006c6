package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrObligationNotFound  = errors.New("obligation not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrInvalidPrincipal    = errors.New("principal must be greater than zero")
	ErrStartWeekNotSunday  = errors.New("start week must fall on a Sunday")
	ErrInterestRateRange   = errors.New("interest rate must be between 0 and 100")
	ErrRepairInterest      = errors.New("repair obligations do not accrue interest")
	ErrMissingMedallion    = errors.New("loan obligations require a medallion reference")
	ErrInvalidSelector     = errors.New("exactly one of installment_ids or post_all_due must be set")
	ErrPostingInProgress   = errors.New("a posting batch is already running")
	ErrDuplicatePosting    = errors.New("installment has already been posted")
	ErrInvalidTransition   = errors.New("invalid installment status transition")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeObligationNotFound  = "OBLIGATION_NOT_FOUND"
	ErrCodeInstallmentNotFound = "INSTALLMENT_NOT_FOUND"
	ErrCodeInvalidPrincipal    = "INVALID_PRINCIPAL"
	ErrCodeStartWeekNotSunday  = "START_WEEK_NOT_SUNDAY"
	ErrCodeInterestRateRange   = "INTEREST_RATE_OUT_OF_RANGE"
	ErrCodeRepairInterest      = "REPAIR_INTEREST_NOT_ALLOWED"
	ErrCodeMissingMedallion    = "MISSING_MEDALLION"
	ErrCodeInvalidSelector     = "INVALID_BATCH_SELECTOR"
	ErrCodePostingInProgress   = "POSTING_IN_PROGRESS"
	ErrCodeDuplicatePosting    = "DUPLICATE_POSTING"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeLedgerError         = "LEDGER_ERROR"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeCacheError          = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapObligationNotFound(obligationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeObligationNotFound,
		fmt.Sprintf("Obligation with ID %s not found", obligationID),
		ErrObligationNotFound,
	)
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", installmentID),
		ErrInstallmentNotFound,
	)
}

func WrapInvalidPrincipal(principal string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPrincipal,
		fmt.Sprintf("Principal %s is not a positive amount", principal),
		ErrInvalidPrincipal,
	)
}

func WrapStartWeekNotSunday(date string) *BusinessError {
	return NewBusinessError(
		ErrCodeStartWeekNotSunday,
		fmt.Sprintf("Start week %s does not fall on a Sunday", date),
		ErrStartWeekNotSunday,
	)
}

func WrapInterestRateRange(rate string) *BusinessError {
	return NewBusinessError(
		ErrCodeInterestRateRange,
		fmt.Sprintf("Interest rate %s is outside [0, 100]", rate),
		ErrInterestRateRange,
	)
}

func WrapRepairInterest(rate string) *BusinessError {
	return NewBusinessError(
		ErrCodeRepairInterest,
		fmt.Sprintf("Repair obligations cannot carry interest rate %s", rate),
		ErrRepairInterest,
	)
}

func WrapMissingMedallion() *BusinessError {
	return NewBusinessError(
		ErrCodeMissingMedallion,
		"Loan obligations require a medallion reference",
		ErrMissingMedallion,
	)
}

func WrapInvalidSelector() *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidSelector,
		"Exactly one of installment_ids or post_all_due must be set",
		ErrInvalidSelector,
	)
}

func WrapPostingInProgress() *BusinessError {
	return NewBusinessError(
		ErrCodePostingInProgress,
		"Another posting batch holds the run lock",
		ErrPostingInProgress,
	)
}

func WrapDuplicatePosting(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicatePosting,
		fmt.Sprintf("Installment %s already has a ledger posting", installmentID),
		ErrDuplicatePosting,
	)
}

func WrapInvalidTransition(installmentID, from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Installment %s cannot move from %s to %s", installmentID, from, to),
		ErrInvalidTransition,
	)
}

func WrapLedgerError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLedgerError,
		"ledger operation failed",
		err,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
