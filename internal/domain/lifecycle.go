package domain

import (
	"fmt"
	"time"

	customError "github.com/segyhp/rental-engine/pkg/errors"
	"github.com/segyhp/rental-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// Policy holds the business rules the Engine enforces.
type Policy struct {
	MaxItems          int
	PointsPerBook     decimal.Decimal
	LateFeePerOverdue decimal.Decimal

	// ResetLateFeeOnRent zeroes the late fee on every successful rent.
	ResetLateFeeOnRent bool

	// RevertToOKOnFullReturn moves RENTED back to OK once nothing is held.
	RevertToOKOnFullReturn bool
}

// DefaultPolicy returns the standard rental rules.
func DefaultPolicy() Policy {
	return Policy{
		MaxItems:               5,
		PointsPerBook:          decimal.NewFromInt(30),
		LateFeePerOverdue:      decimal.NewFromInt(30),
		ResetLateFeeOnRent:     false,
		RevertToOKOnFullReturn: true,
	}
}

// Transition is the result of a successful lifecycle step: the new aggregate
// state and the events to emit after it is persisted.
type Transition struct {
	Rental *Rental
	Events []Event
}

// Engine applies rental state transitions. It never mutates its input and
// performs no I/O.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Rent checks out bookIDs on rental, dated today.
func (e *Engine) Rent(rental *Rental, bookIDs []int64, today time.Time) (*Transition, error) {
	if err := validateBookIDs(bookIDs); err != nil {
		return nil, err
	}
	if rental.Status.OnHold() {
		return nil, customError.WrapAlreadyOverdue(rental.UserID)
	}
	for _, bookID := range bookIDs {
		if rental.Holds(bookID) {
			return nil, customError.WrapBookAlreadyRented(bookID)
		}
	}
	if rental.HeldCount()+len(bookIDs) > e.policy.MaxItems {
		return nil, customError.WrapCapacityExceeded(rental.HeldCount(), len(bookIDs), e.policy.MaxItems)
	}

	next := rental.Clone()
	events := make([]Event, 0, 2*len(bookIDs)+1)
	for _, bookID := range bookIDs {
		next.RentedItems = append(next.RentedItems, RentedItem{
			RentalID:   next.ID,
			BookID:     bookID,
			RentalDate: today,
		})
		events = append(events,
			bookAvailabilityEvent(bookID, BookUnavailable),
			catalogEvent(bookID, CatalogRentBook),
		)
	}
	next.Status = RentalStatusRented
	if e.policy.ResetLateFeeOnRent {
		next.LateFee = decimal.Zero
	}
	events = append(events, pointsCreditEvent(next.UserID, utils.PointsForBooks(e.policy.PointsPerBook, len(bookIDs))))

	return &Transition{Rental: next, Events: events}, nil
}

// Return checks rented books back in. Ids the user does not have rented are
// ignored; if none match the call fails without change.
func (e *Engine) Return(rental *Rental, bookIDs []int64, today time.Time) (*Transition, error) {
	next := rental.Clone()
	var events []Event
	for _, bookID := range bookIDs {
		i := next.rentedIndex(bookID)
		if i < 0 {
			continue
		}
		next.removeRented(i)
		next.appendReturned(bookID, today)
		events = append(events,
			bookAvailabilityEvent(bookID, BookAvailable),
			catalogEvent(bookID, CatalogReturnBook),
		)
	}
	if len(events) == 0 {
		return nil, customError.WrapNoMatchingRental(rental.UserID, bookIDs)
	}

	if e.policy.RevertToOKOnFullReturn && next.Status == RentalStatusRented && next.HeldCount() == 0 {
		next.Status = RentalStatusOK
	}

	return &Transition{Rental: next, Events: events}, nil
}

// MarkOverdue moves rented books to the overdue set and charges one late fee
// for the whole call.
func (e *Engine) MarkOverdue(rental *Rental, bookIDs []int64) (*Transition, error) {
	next := rental.Clone()
	moved := 0
	for _, bookID := range bookIDs {
		i := next.rentedIndex(bookID)
		if i < 0 {
			continue
		}
		item := next.removeRented(i)
		next.OverdueItems = append(next.OverdueItems, OverdueItem{
			RentalID:   item.RentalID,
			BookID:     item.BookID,
			RentalDate: item.RentalDate,
		})
		moved++
	}
	if moved == 0 {
		return nil, customError.WrapNoMatchingRental(rental.UserID, bookIDs)
	}

	next.Status = RentalStatusRentUnavailable
	next.LateFee = next.LateFee.Add(e.policy.LateFeePerOverdue)

	return &Transition{Rental: next}, nil
}

// ReturnOverdue checks overdue books back in. The hold and the fee stay until
// the hold is released.
func (e *Engine) ReturnOverdue(rental *Rental, bookIDs []int64, today time.Time) (*Transition, error) {
	next := rental.Clone()
	var events []Event
	for _, bookID := range bookIDs {
		i := next.overdueIndex(bookID)
		if i < 0 {
			continue
		}
		next.removeOverdue(i)
		next.appendReturned(bookID, today)
		events = append(events,
			bookAvailabilityEvent(bookID, BookAvailable),
			catalogEvent(bookID, CatalogReturnBook),
		)
	}
	if len(events) == 0 {
		return nil, customError.WrapNoMatchingRental(rental.UserID, bookIDs)
	}

	return &Transition{Rental: next, Events: events}, nil
}

// ReleaseOverdueHold settles the late fee and lifts the hold.
func (e *Engine) ReleaseOverdueHold(rental *Rental) *Transition {
	next := rental.Clone()
	next.LateFee = decimal.Zero
	next.Status = RentalStatusOK
	return &Transition{Rental: next}
}

func validateBookIDs(bookIDs []int64) error {
	if len(bookIDs) == 0 {
		return customError.WrapInvalidRequest("book_ids must not be empty")
	}
	seen := make(map[int64]struct{}, len(bookIDs))
	for _, id := range bookIDs {
		if id <= 0 {
			return customError.WrapInvalidRequest(fmt.Sprintf("book id %d must be positive", id))
		}
		if _, ok := seen[id]; ok {
			return customError.WrapInvalidRequest(fmt.Sprintf("book id %d listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}
