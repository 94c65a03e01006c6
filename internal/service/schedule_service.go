package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/config"
	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/repository"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
	"github.com/fleetcab/billing-engine/pkg/utils"
)

var oneHundred = decimal.NewFromInt(100)

// ScheduleService expands obligations into weekly installment schedules.
type ScheduleService struct {
	obligationRepo repository.ObligationRepository
	matrix         *domain.RepaymentMatrix
	config         *config.Config
	log            *zap.Logger
}

func NewScheduleService(
	obligationRepo repository.ObligationRepository,
	matrix *domain.RepaymentMatrix,
	cfg *config.Config,
	log *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		obligationRepo: obligationRepo,
		matrix:         matrix,
		config:         cfg,
		log:            log,
	}
}

// GenerateSchedule validates the obligation terms, expands them into
// Sunday-anchored installments, and persists the schedule atomically with
// the obligation's Draft -> Open transition.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, request *domain.CreateObligationRequest) (*domain.Obligation, []*domain.Installment, error) {
	if err := validateTerms(request); err != nil {
		return nil, nil, err
	}

	year := request.OriginatedOn.Year()
	seq, err := s.obligationRepo.NextSeq(ctx, request.Kind, year)
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	obligation := &domain.Obligation{
		ID:           uuid.New(),
		ObligationID: utils.FormatObligationID(s.config.IDPrefix(request.Kind), year, seq),
		Kind:         request.Kind,
		Principal:    request.Principal,
		InterestRate: request.InterestRate,
		StartWeek:    utils.DateOnly(request.StartWeek),
		OriginatedOn: utils.DateOnly(request.OriginatedOn),
		DriverID:     request.DriverID,
		LeaseID:      request.LeaseID,
		VehicleID:    request.VehicleID,
		Status:       domain.ObligationStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if request.MedallionID != "" {
		medallionID := request.MedallionID
		obligation.MedallionID = &medallionID
	}

	installments := ExpandSchedule(obligation, s.matrix)

	if err := s.obligationRepo.CreateWithSchedule(ctx, obligation, installments); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	s.log.Info("schedule generated",
		zap.String("obligation_id", obligation.ObligationID),
		zap.String("kind", obligation.Kind),
		zap.String("principal", obligation.Principal.StringFixed(2)),
		zap.Int("installments", len(installments)),
	)

	return obligation, installments, nil
}

func validateTerms(request *domain.CreateObligationRequest) error {
	if !request.Principal.IsPositive() {
		return customError.WrapInvalidPrincipal(request.Principal.String())
	}

	if !utils.IsSunday(request.StartWeek) {
		return customError.WrapStartWeekNotSunday(request.StartWeek.Format("2006-01-02"))
	}

	if request.InterestRate.IsNegative() || request.InterestRate.GreaterThan(oneHundred) {
		return customError.WrapInterestRateRange(request.InterestRate.String())
	}

	if request.Kind == domain.ObligationKindRepair && !request.InterestRate.IsZero() {
		return customError.WrapRepairInterest(request.InterestRate.String())
	}

	if request.Kind == domain.ObligationKindLoan && request.MedallionID == "" {
		return customError.WrapMissingMedallion()
	}

	return nil
}

// ExpandSchedule turns an obligation's principal into ordered weekly
// installments. The weekly principal comes from the repayment matrix; the
// final installment is clipped to the exact remaining balance so the
// schedule sums to the principal with no rounding leakage. Interest, when
// the kind supports it, is simple interest on the outstanding balance from
// the previous anchor point (origination date, then each week end).
func ExpandSchedule(obligation *domain.Obligation, matrix *domain.RepaymentMatrix) []*domain.Installment {
	weekly := matrix.WeeklyFor(obligation.Principal)

	var installments []*domain.Installment
	remaining := obligation.Principal
	cursor := obligation.StartWeek
	lastPoint := obligation.OriginatedOn
	seq := 1

	for remaining.IsPositive() {
		principalDue := decimal.Min(weekly, remaining)
		weekEnd := utils.WeekEnd(cursor)

		interestDue := decimal.Zero
		if obligation.SupportsInterest() && !obligation.InterestRate.IsZero() {
			elapsed := utils.DaysBetween(lastPoint, weekEnd)
			interestDue = utils.SimpleInterest(remaining, obligation.InterestRate, elapsed)
		}

		installments = append(installments, &domain.Installment{
			ID:            uuid.New(),
			InstallmentID: utils.FormatInstallmentID(obligation.ObligationID, seq),
			ObligationID:  obligation.ObligationID,
			Seq:           seq,
			WeekStart:     cursor,
			WeekEnd:       weekEnd,
			Principal:     principalDue,
			Interest:      interestDue,
			TotalDue:      principalDue.Add(interestDue),
			Status:        domain.InstallmentStatusScheduled,
			CreatedAt:     obligation.CreatedAt,
		})

		remaining = remaining.Sub(principalDue)
		lastPoint = weekEnd
		cursor = cursor.AddDate(0, 0, 7)
		seq++
	}

	return installments
}
