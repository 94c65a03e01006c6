package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/repository"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
)

// LifecycleService receives the ledger's callbacks and keeps installment
// and parent-obligation state consistent as payments are applied or voided.
// These callbacks are the only paths past Posted or back from Paid.
type LifecycleService struct {
	obligationRepo  repository.ObligationRepository
	installmentRepo repository.InstallmentRepository
	log             *zap.Logger
}

func NewLifecycleService(
	obligationRepo repository.ObligationRepository,
	installmentRepo repository.InstallmentRepository,
	log *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		obligationRepo:  obligationRepo,
		installmentRepo: installmentRepo,
		log:             log,
	}
}

// MarkPaid records that a posted installment's ledger balance reached zero.
// Idempotent: a repeat call for a paid installment is a no-op. When the last
// sibling is paid the parent obligation closes.
func (s *LifecycleService) MarkPaid(ctx context.Context, installmentID string) error {
	installment, err := s.installmentRepo.GetByInstallmentID(ctx, installmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapInstallmentNotFound(installmentID)
		}
		return customError.WrapDatabaseError(err)
	}

	if installment.Status == domain.InstallmentStatusPaid {
		return nil
	}

	updated, err := s.installmentRepo.UpdateStatusCAS(ctx, installmentID,
		domain.InstallmentStatusPosted, domain.InstallmentStatusPaid)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !updated {
		// Raced with another callback delivery: paid now means done,
		// anything else is a skipped state.
		current, err := s.installmentRepo.GetByInstallmentID(ctx, installmentID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if current.Status == domain.InstallmentStatusPaid {
			return nil
		}
		return customError.WrapInvalidTransition(installmentID, current.Status, domain.InstallmentStatusPaid)
	}

	s.log.Info("installment paid", zap.String("installment_id", installmentID))

	remaining, err := s.installmentRepo.CountNotPaid(ctx, installment.ObligationID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if remaining > 0 {
		return nil
	}

	closed, err := s.obligationRepo.UpdateStatusCAS(ctx, installment.ObligationID,
		domain.ObligationStatusOpen, domain.ObligationStatusClosed)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if closed {
		s.log.Info("obligation closed", zap.String("obligation_id", installment.ObligationID))
	}

	return nil
}

// MarkReopened records that a payment behind a paid installment was voided.
// Idempotent: a no-op unless the installment is currently paid. A closed
// parent obligation reopens.
func (s *LifecycleService) MarkReopened(ctx context.Context, installmentID string) error {
	installment, err := s.installmentRepo.GetByInstallmentID(ctx, installmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapInstallmentNotFound(installmentID)
		}
		return customError.WrapDatabaseError(err)
	}

	if installment.Status != domain.InstallmentStatusPaid {
		return nil
	}

	updated, err := s.installmentRepo.UpdateStatusCAS(ctx, installmentID,
		domain.InstallmentStatusPaid, domain.InstallmentStatusPosted)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !updated {
		// another delivery already reverted it
		return nil
	}

	s.log.Info("installment reopened", zap.String("installment_id", installmentID))

	reopened, err := s.obligationRepo.UpdateStatusCAS(ctx, installment.ObligationID,
		domain.ObligationStatusClosed, domain.ObligationStatusOpen)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if reopened {
		s.log.Info("obligation reopened", zap.String("obligation_id", installment.ObligationID))
	}

	return nil
}
