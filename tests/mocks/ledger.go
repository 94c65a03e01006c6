package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fleetcab/billing-engine/internal/ledger"
)

type MockLedgerAdapter struct {
	mock.Mock
}

func (m *MockLedgerAdapter) CreateObligation(ctx context.Context, req ledger.PostingRequest) (*ledger.Posting, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Posting), args.Error(1)
}

func (m *MockLedgerAdapter) VoidPosting(ctx context.Context, postingID, reason, userID string) error {
	args := m.Called(ctx, postingID, reason, userID)
	return args.Error(0)
}
