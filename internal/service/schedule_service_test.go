package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/config"
	"github.com/fleetcab/billing-engine/internal/domain"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
	"github.com/fleetcab/billing-engine/tests/mocks"
)

// 2026-01-04 is a Sunday.
var testSunday = time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)

func testMatrix(t *testing.T) *domain.RepaymentMatrix {
	t.Helper()
	matrix, err := domain.NewRepaymentMatrix([]domain.RepaymentTier{
		{UpperBound: decimal.NewFromInt(200), Weekly: decimal.Zero},
		{UpperBound: decimal.NewFromInt(500), Weekly: decimal.NewFromInt(100)},
		{UpperBound: decimal.NewFromInt(1000), Weekly: decimal.NewFromInt(200)},
		{UpperBound: decimal.NewFromInt(3000), Weekly: decimal.NewFromInt(250)},
		{UpperBound: decimal.Zero, Weekly: decimal.NewFromInt(300)},
	})
	require.NoError(t, err)
	return matrix
}

func testConfig() *config.Config {
	return &config.Config{
		Billing: config.BillingConfig{
			LoanPrefix:   "DL",
			RepairPrefix: "RI",
		},
	}
}

func loanObligation(principal, rate string) *domain.Obligation {
	p, _ := decimal.NewFromString(principal)
	r, _ := decimal.NewFromString(rate)
	return &domain.Obligation{
		ObligationID: "DL2026-0001",
		Kind:         domain.ObligationKindLoan,
		Principal:    p,
		InterestRate: r,
		StartWeek:    testSunday,
		OriginatedOn: testSunday.AddDate(0, 0, -7),
	}
}

func TestExpandSchedule_SumInvariant(t *testing.T) {
	matrix := testMatrix(t)

	principals := []string{
		"0.01", "150", "200", "200.01", "450", "500", "650", "650.37",
		"1000", "1000.01", "2999.99", "3000", "3000.01", "12345.67",
	}

	for _, principal := range principals {
		t.Run(principal, func(t *testing.T) {
			obligation := loanObligation(principal, "0")
			installments := ExpandSchedule(obligation, matrix)
			require.NotEmpty(t, installments)

			weekly := matrix.WeeklyFor(obligation.Principal)
			sum := decimal.Zero
			for i, installment := range installments {
				sum = sum.Add(installment.Principal)
				assert.Equal(t, i+1, installment.Seq)
				assert.True(t, installment.TotalDue.Equal(installment.Principal.Add(installment.Interest)))
				assert.Equal(t, domain.InstallmentStatusScheduled, installment.Status)
				assert.True(t, installment.WeekEnd.Equal(installment.WeekStart.AddDate(0, 0, 6)))
			}

			assert.True(t, sum.Equal(obligation.Principal),
				"installment principals must sum to %s exactly, got %s", obligation.Principal, sum)

			final := installments[len(installments)-1]
			assert.True(t, final.Principal.LessThanOrEqual(weekly),
				"final principal %s exceeds weekly %s", final.Principal, weekly)
		})
	}
}

func TestExpandSchedule_WeeksAnchoredToSuccessiveSundays(t *testing.T) {
	obligation := loanObligation("650", "0")
	installments := ExpandSchedule(obligation, testMatrix(t))
	require.Len(t, installments, 4)

	for i, installment := range installments {
		expectedStart := testSunday.AddDate(0, 0, 7*i)
		assert.True(t, installment.WeekStart.Equal(expectedStart))
		assert.Equal(t, time.Sunday, installment.WeekStart.Weekday())
	}
}

func TestExpandSchedule_ConcreteLoanScenario(t *testing.T) {
	// 650.00 at 10%/yr, originated 7 days before the start week. The
	// matrix puts 650 in the 200/week tier, so the principal splits
	// 200, 200, 200, 50 with the final installment clipped to the
	// remaining balance.
	obligation := loanObligation("650", "10")
	installments := ExpandSchedule(obligation, testMatrix(t))
	require.Len(t, installments, 4)

	// 13 days elapsed from origination to the first week end:
	// 650 * 10% * 13/365 = 2.3150... -> 2.32
	assert.True(t, installments[0].Principal.Equal(decimal.NewFromInt(200)))
	assert.True(t, installments[0].Interest.Equal(decimal.NewFromFloat(2.32)),
		"first interest: got %s", installments[0].Interest)
	assert.True(t, installments[0].TotalDue.Equal(decimal.NewFromFloat(202.32)))

	// 450 * 10% * 7/365 = 0.8630... -> 0.86
	assert.True(t, installments[1].Interest.Equal(decimal.NewFromFloat(0.86)),
		"second interest: got %s", installments[1].Interest)

	// 250 * 10% * 7/365 = 0.4794... -> 0.48
	assert.True(t, installments[2].Interest.Equal(decimal.NewFromFloat(0.48)),
		"third interest: got %s", installments[2].Interest)

	// 50 * 10% * 7/365 = 0.0958... -> 0.10
	assert.True(t, installments[3].Principal.Equal(decimal.NewFromInt(50)))
	assert.True(t, installments[3].Interest.Equal(decimal.NewFromFloat(0.10)),
		"fourth interest: got %s", installments[3].Interest)

	assert.Equal(t, "DL2026-0001-01", installments[0].InstallmentID)
	assert.Equal(t, "DL2026-0001-04", installments[3].InstallmentID)
}

func TestExpandSchedule_Deterministic(t *testing.T) {
	obligation := loanObligation("2750.50", "12.5")
	matrix := testMatrix(t)

	first := ExpandSchedule(obligation, matrix)
	second := ExpandSchedule(obligation, matrix)
	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i].InstallmentID, second[i].InstallmentID)
		assert.True(t, first[i].Principal.Equal(second[i].Principal))
		assert.True(t, first[i].Interest.Equal(second[i].Interest))
		assert.True(t, first[i].TotalDue.Equal(second[i].TotalDue))
		assert.True(t, first[i].WeekStart.Equal(second[i].WeekStart))
	}
}

func TestExpandSchedule_RepairNeverAccruesInterest(t *testing.T) {
	obligation := loanObligation("650", "0")
	obligation.Kind = domain.ObligationKindRepair

	installments := ExpandSchedule(obligation, testMatrix(t))
	for _, installment := range installments {
		assert.True(t, installment.Interest.IsZero())
		assert.True(t, installment.TotalDue.Equal(installment.Principal))
	}
}

func TestExpandSchedule_PayInFullTier(t *testing.T) {
	obligation := loanObligation("180", "0")
	installments := ExpandSchedule(obligation, testMatrix(t))

	require.Len(t, installments, 1)
	assert.True(t, installments[0].Principal.Equal(decimal.NewFromInt(180)))
}

func TestGenerateSchedule_Success(t *testing.T) {
	mockObligationRepo := &mocks.MockObligationRepository{}

	svc := &ScheduleService{
		obligationRepo: mockObligationRepo,
		matrix:         testMatrix(t),
		config:         testConfig(),
		log:            zap.NewNop(),
	}

	mockObligationRepo.On("NextSeq", mock.Anything, domain.ObligationKindLoan, 2025).Return(7, nil)
	mockObligationRepo.On("CreateWithSchedule", mock.Anything,
		mock.MatchedBy(func(obligation *domain.Obligation) bool {
			return obligation.ObligationID == "DL2025-0007" &&
				obligation.Status == domain.ObligationStatusOpen
		}),
		mock.MatchedBy(func(installments []*domain.Installment) bool {
			return len(installments) == 4
		}),
	).Return(nil)

	request := &domain.CreateObligationRequest{
		Kind:         domain.ObligationKindLoan,
		Principal:    decimal.NewFromInt(650),
		InterestRate: decimal.NewFromInt(10),
		StartWeek:    testSunday,
		OriginatedOn: testSunday.AddDate(0, 0, -7), // 2025-12-28
		DriverID:     "DRV-100",
		LeaseID:      "LSE-200",
		VehicleID:    "VEH-300",
		MedallionID:  "MED-400",
	}

	obligation, schedule, err := svc.GenerateSchedule(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, "DL2025-0007", obligation.ObligationID)
	assert.Equal(t, domain.ObligationStatusOpen, obligation.Status)
	assert.Len(t, schedule, 4)
	mockObligationRepo.AssertExpectations(t)
}

func TestGenerateSchedule_ValidationErrors(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*domain.CreateObligationRequest)
		expectedCode string
	}{
		{
			name:         "zero principal",
			mutate:       func(r *domain.CreateObligationRequest) { r.Principal = decimal.Zero },
			expectedCode: customError.ErrCodeInvalidPrincipal,
		},
		{
			name:         "negative principal",
			mutate:       func(r *domain.CreateObligationRequest) { r.Principal = decimal.NewFromInt(-10) },
			expectedCode: customError.ErrCodeInvalidPrincipal,
		},
		{
			name:         "start week not a Sunday",
			mutate:       func(r *domain.CreateObligationRequest) { r.StartWeek = testSunday.AddDate(0, 0, 1) },
			expectedCode: customError.ErrCodeStartWeekNotSunday,
		},
		{
			name:         "interest rate above 100",
			mutate:       func(r *domain.CreateObligationRequest) { r.InterestRate = decimal.NewFromFloat(100.5) },
			expectedCode: customError.ErrCodeInterestRateRange,
		},
		{
			name:         "negative interest rate",
			mutate:       func(r *domain.CreateObligationRequest) { r.InterestRate = decimal.NewFromInt(-1) },
			expectedCode: customError.ErrCodeInterestRateRange,
		},
		{
			name: "repair with an interest rate",
			mutate: func(r *domain.CreateObligationRequest) {
				r.Kind = domain.ObligationKindRepair
				r.InterestRate = decimal.NewFromInt(5)
			},
			expectedCode: customError.ErrCodeRepairInterest,
		},
		{
			name: "loan missing medallion",
			mutate: func(r *domain.CreateObligationRequest) {
				r.MedallionID = ""
			},
			expectedCode: customError.ErrCodeMissingMedallion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockObligationRepo := &mocks.MockObligationRepository{}
			svc := &ScheduleService{
				obligationRepo: mockObligationRepo,
				matrix:         testMatrix(t),
				config:         testConfig(),
				log:            zap.NewNop(),
			}

			request := &domain.CreateObligationRequest{
				Kind:         domain.ObligationKindLoan,
				Principal:    decimal.NewFromInt(650),
				InterestRate: decimal.NewFromInt(10),
				StartWeek:    testSunday,
				OriginatedOn: testSunday.AddDate(0, 0, -7),
				DriverID:     "DRV-100",
				LeaseID:      "LSE-200",
				VehicleID:    "VEH-300",
				MedallionID:  "MED-400",
			}
			tt.mutate(request)

			obligation, schedule, err := svc.GenerateSchedule(context.Background(), request)

			require.Error(t, err)
			assert.Nil(t, obligation)
			assert.Nil(t, schedule)

			var businessErr *customError.BusinessError
			require.ErrorAs(t, err, &businessErr)
			assert.Equal(t, tt.expectedCode, businessErr.Code)

			// nothing persisted on validation failure
			mockObligationRepo.AssertNotCalled(t, "CreateWithSchedule", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateSchedule_RepairWithoutMedallion(t *testing.T) {
	mockObligationRepo := &mocks.MockObligationRepository{}
	svc := &ScheduleService{
		obligationRepo: mockObligationRepo,
		matrix:         testMatrix(t),
		config:         testConfig(),
		log:            zap.NewNop(),
	}

	mockObligationRepo.On("NextSeq", mock.Anything, domain.ObligationKindRepair, 2026).Return(1, nil)
	mockObligationRepo.On("CreateWithSchedule", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	request := &domain.CreateObligationRequest{
		Kind:         domain.ObligationKindRepair,
		Principal:    decimal.NewFromFloat(423.50),
		StartWeek:    testSunday,
		OriginatedOn: testSunday.AddDate(0, 0, -3),
		DriverID:     "DRV-100",
		LeaseID:      "LSE-200",
		VehicleID:    "VEH-300",
	}

	obligation, schedule, err := svc.GenerateSchedule(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, "RI2026-0001", obligation.ObligationID)
	assert.Nil(t, obligation.MedallionID)

	sum := decimal.Zero
	for _, installment := range schedule {
		assert.True(t, installment.Interest.IsZero())
		sum = sum.Add(installment.Principal)
	}
	assert.True(t, sum.Equal(request.Principal))
}
