package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-engine/internal/config"
	"github.com/segyhp/rental-engine/internal/domain"
	"github.com/segyhp/rental-engine/internal/ledger"
	"github.com/segyhp/rental-engine/internal/publisher"
	"github.com/segyhp/rental-engine/internal/repository"
	customError "github.com/segyhp/rental-engine/pkg/errors"
	"github.com/segyhp/rental-engine/pkg/utils"
)

type RentalService struct {
	repo      repository.RentalRepository
	publisher publisher.Publisher
	ledger    ledger.PointsLedger
	engine    *domain.Engine
	logger    *slog.Logger

	location       *time.Location
	rentalPeriod   int
	publishTimeout time.Duration
	retryOptions   []RetryOption
	now            func() time.Time
}

func NewRentalService(
	repo repository.RentalRepository,
	publisher publisher.Publisher,
	ledger ledger.PointsLedger,
	config *config.Config,
	logger *slog.Logger,
) *RentalService {
	return &RentalService{
		repo:           repo,
		publisher:      publisher,
		ledger:         ledger,
		engine:         domain.NewEngine(config.Policy()),
		logger:         logger,
		location:       config.Location(),
		rentalPeriod:   config.Business.RentalPeriodDays,
		publishTimeout: config.Events.PublishTimeout,
		retryOptions: []RetryOption{
			WithMaxAttempts(config.Retry.MaxAttempts),
			WithBaseDelay(config.Retry.BaseDelay),
		},
		now: time.Now,
	}
}

// RentBooks checks out books for a user, creating the user's rental on first use
func (s *RentalService) RentBooks(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	s.logger.DebugContext(ctx, "rent books", "user_id", userID, "book_ids", bookIDs)

	return s.apply(ctx, "rent", userID, true, func(rental *domain.Rental, today time.Time) (*domain.Transition, error) {
		return s.engine.Rent(rental, bookIDs, today)
	})
}

// ReturnBooks checks rented books back in
func (s *RentalService) ReturnBooks(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	s.logger.DebugContext(ctx, "return books", "user_id", userID, "book_ids", bookIDs)

	return s.apply(ctx, "return", userID, false, func(rental *domain.Rental, today time.Time) (*domain.Transition, error) {
		return s.engine.Return(rental, bookIDs, today)
	})
}

// MarkOverdue moves rented books to overdue and charges the late fee
func (s *RentalService) MarkOverdue(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	s.logger.DebugContext(ctx, "mark overdue", "user_id", userID, "book_ids", bookIDs)

	return s.apply(ctx, "overdue", userID, false, func(rental *domain.Rental, _ time.Time) (*domain.Transition, error) {
		return s.engine.MarkOverdue(rental, bookIDs)
	})
}

// ReturnOverdue checks overdue books back in
func (s *RentalService) ReturnOverdue(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error) {
	s.logger.DebugContext(ctx, "return overdue books", "user_id", userID, "book_ids", bookIDs)

	return s.apply(ctx, "return-overdue", userID, false, func(rental *domain.Rental, today time.Time) (*domain.Transition, error) {
		return s.engine.ReturnOverdue(rental, bookIDs, today)
	})
}

// ReleaseOverdueHold clears the late fee and lifts the rent hold
func (s *RentalService) ReleaseOverdueHold(ctx context.Context, userID int64) (*domain.Rental, error) {
	s.logger.DebugContext(ctx, "release overdue hold", "user_id", userID)

	return s.apply(ctx, "release-overdue", userID, false, func(rental *domain.Rental, _ time.Time) (*domain.Transition, error) {
		return s.engine.ReleaseOverdueHold(rental), nil
	})
}

// PayLateFee asks the points ledger to debit the outstanding late fee.
// The fee itself is only cleared by ReleaseOverdueHold.
func (s *RentalService) PayLateFee(ctx context.Context, userID int64) (*domain.LateFeePayment, error) {
	s.logger.DebugContext(ctx, "pay late fee", "user_id", userID)

	rental, err := s.findForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	payment := &domain.LateFeePayment{Rental: rental, Amount: rental.LateFee}
	if rental.LateFee.IsZero() {
		return payment, nil
	}

	payment.Attempted = true
	if err = s.ledger.DebitPoints(ctx, userID, rental.LateFee); err != nil {
		s.logger.WarnContext(ctx, "late fee debit failed",
			"user_id", userID,
			"late_fee", rental.LateFee.String(),
			"error", err,
		)
		return nil, customError.WrapPaymentRejected(userID, err)
	}

	s.logger.InfoContext(ctx, "late fee debited", "user_id", userID, "late_fee", rental.LateFee.String())
	return payment, nil
}

// GetRental returns a rental by ID
func (s *RentalService) GetRental(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	rental, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return rental, nil
}

// GetRentalByUser returns the rental owned by a user
func (s *RentalService) GetRentalByUser(ctx context.Context, userID int64) (*domain.Rental, error) {
	rental, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return rental, nil
}

// ListRentals returns one page of rentals
func (s *RentalService) ListRentals(ctx context.Context, page domain.PageRequest) (*domain.Page, error) {
	result, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return result, nil
}

// DeleteRental removes a rental and its history
func (s *RentalService) DeleteRental(ctx context.Context, id uuid.UUID) error {
	s.logger.InfoContext(ctx, "delete rental", "rental_id", id)

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapRepositoryError(err)
	}
	return nil
}

type transitionFunc func(rental *domain.Rental, today time.Time) (*domain.Transition, error)

// apply runs one read-transition-write cycle for a user's rental, retrying
// lost updates, then dispatches the transition's events once the write is
// committed.
func (s *RentalService) apply(ctx context.Context, op string, userID int64, createIfMissing bool, fn transitionFunc) (*domain.Rental, error) {
	var committed *domain.Transition

	err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		current, err := s.loadForTransition(ctx, userID, createIfMissing)
		if err != nil {
			return err
		}

		next, err := fn(current, s.today())
		if err != nil {
			return err
		}

		saved, err := s.repo.Save(ctx, next.Rental)
		if err != nil {
			if errors.Is(err, customError.ErrConcurrentModification) {
				s.logger.WarnContext(ctx, "rental changed concurrently, retrying",
					"op", op,
					"user_id", userID,
					"rental_id", current.ID,
				)
				return err
			}
			return customError.WrapDatabaseError(err)
		}

		committed = &domain.Transition{Rental: saved, Events: next.Events}
		return nil
	}, s.retryOptions...)
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, userID, committed.Events)
	return committed.Rental, nil
}

func (s *RentalService) loadForTransition(ctx context.Context, userID int64, createIfMissing bool) (*domain.Rental, error) {
	rental, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return rental, nil
	}
	if !errors.Is(err, customError.ErrRentalNotFound) {
		return nil, customError.WrapDatabaseError(err)
	}
	if !createIfMissing {
		return nil, customError.WrapNoRentalForUser(userID)
	}
	return domain.NewRental(userID, s.now()), nil
}

func (s *RentalService) findForUser(ctx context.Context, userID int64) (*domain.Rental, error) {
	rental, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, customError.ErrRentalNotFound) {
			return nil, customError.WrapNoRentalForUser(userID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return rental, nil
}

func (s *RentalService) today() time.Time {
	return utils.Today(s.now(), s.location)
}

func wrapRepositoryError(err error) error {
	if errors.Is(err, customError.ErrRentalNotFound) {
		return err
	}
	return customError.WrapDatabaseError(err)
}
