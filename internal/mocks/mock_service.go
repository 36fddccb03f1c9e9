package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/rental-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) RentBooks(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, userID, bookIDs))
}

func (m *MockRentalService) ReturnBooks(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, userID, bookIDs))
}

func (m *MockRentalService) MarkOverdue(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, userID, bookIDs))
}

func (m *MockRentalService) ReturnOverdue(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, userID, bookIDs))
}

func (m *MockRentalService) ReleaseOverdueHold(ctx context.Context, userID int64) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, userID))
}

func (m *MockRentalService) PayLateFee(ctx context.Context, userID int64) (*domain.LateFeePayment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LateFeePayment), args.Error(1)
}

func (m *MockRentalService) GetRental(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id))
}

func (m *MockRentalService) GetRentalByUser(ctx context.Context, userID int64) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, userID))
}

func (m *MockRentalService) ListRentals(ctx context.Context, page domain.PageRequest) (*domain.Page, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

func (m *MockRentalService) DeleteRental(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRentalService) rental(args mock.Arguments) (*domain.Rental, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

// NewMockRentalService creates a new mock rental service instance
func NewMockRentalService() *MockRentalService {
	return &MockRentalService{}
}
