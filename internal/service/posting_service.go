package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/config"
	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/ledger"
	"github.com/fleetcab/billing-engine/internal/repository"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
	"github.com/fleetcab/billing-engine/pkg/utils"
)

// Per-item failure reasons reported in batch results.
const (
	reasonNotFound      = "not found"
	reasonNotScheduled  = "status must be Scheduled"
	reasonParentNotOpen = "parent must be Open"
	reasonFutureDated   = "installment date is in the future"
)

const postingLockKey = "billing:posting:lock"

// PostingService moves installments from Scheduled to Posted by creating
// ledger obligations, one batch at a time with independent per-item
// outcomes.
type PostingService struct {
	obligationRepo  repository.ObligationRepository
	installmentRepo repository.InstallmentRepository
	ledger          ledger.Adapter
	redis           *redis.Client
	config          *config.Config
	log             *zap.Logger
	now             func() time.Time
}

func NewPostingService(
	obligationRepo repository.ObligationRepository,
	installmentRepo repository.InstallmentRepository,
	ledgerAdapter ledger.Adapter,
	redisClient *redis.Client,
	cfg *config.Config,
	log *zap.Logger,
) *PostingService {
	return &PostingService{
		obligationRepo:  obligationRepo,
		installmentRepo: installmentRepo,
		ledger:          ledgerAdapter,
		redis:           redisClient,
		config:          cfg,
		log:             log,
		now:             time.Now,
	}
}

// PostInstallments selects installments by explicit ids or by "all due",
// posts each one independently, and aggregates per-item outcomes. Item
// failures never abort the batch; only systemic errors propagate. All
// successful mutations land in a single commit.
func (s *PostingService) PostInstallments(ctx context.Context, request *domain.PostInstallmentsRequest) (*domain.BatchResult, error) {
	explicit := len(request.InstallmentIDs) > 0
	if explicit == request.PostAllDue {
		return nil, customError.WrapInvalidSelector()
	}

	if s.redis != nil {
		release, err := s.acquireRunLock(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	today := utils.DateOnly(s.now())

	ids := request.InstallmentIDs
	if request.PostAllDue {
		due, err := s.installmentRepo.ListDue(ctx, today)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		ids = make([]string, 0, len(due))
		for _, installment := range due {
			ids = append(ids, installment.InstallmentID)
		}
	}

	result := &domain.BatchResult{Results: []domain.ItemResult{}}
	if len(ids) == 0 {
		return result, nil
	}

	tx, err := s.installmentRepo.BeginPosting(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	parents := make(map[string]*domain.Obligation)

	for _, installmentID := range ids {
		if err := s.postOne(ctx, tx, installmentID, today, parents, result); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	if result.SuccessfulPosts > 0 {
		if err := tx.Commit(); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	} else {
		_ = tx.Rollback()
	}

	s.log.Info("posting batch finished",
		zap.Int("total", result.TotalProcessed),
		zap.Int("succeeded", result.SuccessfulPosts),
		zap.Int("failed", result.FailedPosts),
	)
	for _, item := range result.Results {
		if !item.Success {
			s.log.Warn("installment not posted",
				zap.String("installment_id", item.InstallmentID),
				zap.String("reason", item.Error),
			)
		}
	}

	return result, nil
}

// postOne runs every precondition and the ledger call for one installment.
// Any precondition or ledger failure is recorded on the result and leaves
// the installment untouched; only systemic errors are returned.
func (s *PostingService) postOne(
	ctx context.Context,
	tx repository.PostingTx,
	installmentID string,
	today time.Time,
	parents map[string]*domain.Obligation,
	result *domain.BatchResult,
) error {
	installment, err := tx.GetForUpdate(ctx, installmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.AddFailure(installmentID, reasonNotFound)
			return nil
		}
		return customError.WrapDatabaseError(err)
	}

	if installment.Status != domain.InstallmentStatusScheduled {
		result.AddFailure(installmentID, reasonNotScheduled)
		return nil
	}

	parent, ok := parents[installment.ObligationID]
	if !ok {
		parent, err = s.obligationRepo.GetByObligationID(ctx, installment.ObligationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.AddFailure(installmentID, reasonParentNotOpen)
				return nil
			}
			return customError.WrapDatabaseError(err)
		}
		parents[installment.ObligationID] = parent
	}

	if parent.Status != domain.ObligationStatusOpen {
		result.AddFailure(installmentID, reasonParentNotOpen)
		return nil
	}

	if utils.DateOnly(installment.WeekStart).After(today) {
		result.AddFailure(installmentID, reasonFutureDated)
		return nil
	}

	category := ledger.CategoryDriverLoan
	if parent.Kind == domain.ObligationKindRepair {
		category = ledger.CategoryVehicleRepair
	}

	posting, err := s.ledger.CreateObligation(ctx, ledger.PostingRequest{
		Category:    category,
		Amount:      installment.TotalDue,
		ReferenceID: installment.InstallmentID,
		DriverID:    parent.DriverID,
		LeaseID:     parent.LeaseID,
		MedallionID: parent.MedallionID,
	})
	if err != nil {
		// Adapter failures are per-item: state stays untouched so the
		// installment is safe to retry on the next run.
		result.AddFailure(installmentID, err.Error())
		return nil
	}

	updated, err := tx.MarkPosted(ctx, installment.InstallmentID, posting.ID, s.now())
	if err != nil {
		return err
	}
	if !updated {
		result.AddFailure(installmentID, reasonNotScheduled)
		return nil
	}

	result.AddSuccess(installment.InstallmentID, posting.ID)
	return nil
}

// acquireRunLock serializes concurrent batch triggers (a manual request
// racing the scheduled job) through a Redis SETNX lease.
func (s *PostingService) acquireRunLock(ctx context.Context) (func(), error) {
	ok, err := s.redis.SetNX(ctx, postingLockKey, s.now().Format(time.RFC3339), s.config.GetPostingLockTTL()).Result()
	if err != nil {
		return nil, customError.WrapCacheError(err)
	}
	if !ok {
		return nil, customError.WrapPostingInProgress()
	}

	return func() {
		if err := s.redis.Del(context.Background(), postingLockKey).Err(); err != nil {
			s.log.Warn("failed to release posting lock", zap.Error(err))
		}
	}, nil
}
