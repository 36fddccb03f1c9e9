package mocks

import (
	"context"

	"github.com/segyhp/rental-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) NotifyBookAvailability(ctx context.Context, bookID int64, status domain.BookAvailability) error {
	args := m.Called(ctx, bookID, status)
	return args.Error(0)
}

func (m *MockPublisher) NotifyCatalogEvent(ctx context.Context, bookID int64, eventType domain.CatalogEventType) error {
	args := m.Called(ctx, bookID, eventType)
	return args.Error(0)
}

func (m *MockPublisher) CreditPoints(ctx context.Context, userID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

type MockPointsLedger struct {
	mock.Mock
}

func (m *MockPointsLedger) DebitPoints(ctx context.Context, userID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}
