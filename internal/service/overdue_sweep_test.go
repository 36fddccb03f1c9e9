package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segyhp/rental-engine/internal/domain"
	"github.com/segyhp/rental-engine/internal/mocks"
	customError "github.com/segyhp/rental-engine/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)
	f.acceptAllEvents()
	ctx := context.Background()

	// rent 16 days ago: due after 14 days, so overdue today
	f.service.now = func() time.Time { return fixedNow.AddDate(0, 0, -16) }
	_, err := f.service.RentBooks(ctx, 1, []int64{10, 11})
	require.NoError(t, err)

	// rent 14 days ago: due today, not yet overdue
	f.service.now = func() time.Time { return fixedNow.AddDate(0, 0, -14) }
	_, err = f.service.RentBooks(ctx, 2, []int64{20})
	require.NoError(t, err)

	f.service.now = func() time.Time { return fixedNow }

	result, err := f.service.SweepOverdue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Users)
	assert.Equal(t, 2, result.Books)
	assert.Zero(t, result.Failed)

	overdue, err := f.repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusRentUnavailable, overdue.Status)
	assert.Equal(t, []int64{10, 11}, overdue.OverdueBookIDs())
	// one fee per sweep call, not per book
	assert.True(t, overdue.LateFee.Equal(decimal.NewFromInt(30)))

	current, err := f.repo.GetByUserID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusRented, current.Status)
	assert.True(t, current.LateFee.IsZero())
}

func TestSweepOverdue_CollectsFailures(t *testing.T) {
	repo := &mocks.MockRentalRepository{}
	svc := NewRentalService(repo, &mocks.MockPublisher{}, &mocks.MockPointsLedger{}, testConfig(), discardLogger())
	svc.now = func() time.Time { return fixedNow }

	repo.On("ListOverdueCandidates", mock.Anything, time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC)).Return([]domain.OverdueCandidate{
		{UserID: 1, BookIDs: []int64{10}},
		{UserID: 2, BookIDs: []int64{20}},
	}, nil)
	repo.On("GetByUserID", mock.Anything, int64(1)).Return(nil, errors.New("connection reset"))
	repo.On("GetByUserID", mock.Anything, int64(2)).Return(nil, customError.WrapRentalNotFound("user:2"))

	result, err := svc.SweepOverdue(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 1")
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Users)
}

func TestSweepOverdue_ListFailure(t *testing.T) {
	repo := &mocks.MockRentalRepository{}
	svc := NewRentalService(repo, &mocks.MockPublisher{}, &mocks.MockPointsLedger{}, testConfig(), discardLogger())

	repo.On("ListOverdueCandidates", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	result, err := svc.SweepOverdue(context.Background())

	assert.Nil(t, result)
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
}
