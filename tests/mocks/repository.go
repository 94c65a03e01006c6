package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/repository"
)

type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) CreateWithSchedule(ctx context.Context, obligation *domain.Obligation, installments []*domain.Installment) error {
	args := m.Called(ctx, obligation, installments)
	return args.Error(0)
}

func (m *MockObligationRepository) GetByObligationID(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	args := m.Called(ctx, obligationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Obligation), args.Error(1)
}

func (m *MockObligationRepository) NextSeq(ctx context.Context, kind string, year int) (int, error) {
	args := m.Called(ctx, kind, year)
	return args.Int(0), args.Error(1)
}

func (m *MockObligationRepository) UpdateStatusCAS(ctx context.Context, obligationID, from, to string) (bool, error) {
	args := m.Called(ctx, obligationID, from, to)
	return args.Bool(0), args.Error(1)
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) BeginPosting(ctx context.Context) (repository.PostingTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.PostingTx), args.Error(1)
}

func (m *MockInstallmentRepository) GetByInstallmentID(ctx context.Context, installmentID string) (*domain.Installment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByObligation(ctx context.Context, obligationID string) ([]*domain.Installment, error) {
	args := m.Called(ctx, obligationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListDue(ctx context.Context, asOf time.Time) ([]*domain.Installment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) UpdateStatusCAS(ctx context.Context, installmentID, from, to string) (bool, error) {
	args := m.Called(ctx, installmentID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstallmentRepository) CountNotPaid(ctx context.Context, obligationID string) (int, error) {
	args := m.Called(ctx, obligationID)
	return args.Int(0), args.Error(1)
}

type MockPostingTx struct {
	mock.Mock
}

func (m *MockPostingTx) GetForUpdate(ctx context.Context, installmentID string) (*domain.Installment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockPostingTx) MarkPosted(ctx context.Context, installmentID, postingRef string, postedOn time.Time) (bool, error) {
	args := m.Called(ctx, installmentID, postingRef, postedOn)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostingTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPostingTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}
