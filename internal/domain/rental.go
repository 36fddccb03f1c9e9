package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalStatus is the lifecycle state of a Rental.
type RentalStatus string

const (
	RentalStatusOK              RentalStatus = "OK"
	RentalStatusRented          RentalStatus = "RENTED"
	RentalStatusOverdueHold     RentalStatus = "OVERDUE_HOLD"
	RentalStatusRentUnavailable RentalStatus = "RENT_UNAVAILABLE"
)

// OnHold reports whether new rentals are blocked in this state.
func (s RentalStatus) OnHold() bool {
	return s == RentalStatusOverdueHold || s == RentalStatusRentUnavailable
}

// Valid reports whether s is a known status.
func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusOK, RentalStatusRented, RentalStatusOverdueHold, RentalStatusRentUnavailable:
		return true
	}
	return false
}

// Rental is the per-user aggregate root. Item records are owned by value and
// carry the owning rental's ID instead of a pointer back to it.
type Rental struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Status        RentalStatus    `json:"status" db:"status"`
	LateFee       decimal.Decimal `json:"late_fee" db:"late_fee"`
	Version       int64           `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	RentedItems   []RentedItem    `json:"rented_items" db:"-"`
	OverdueItems  []OverdueItem   `json:"overdue_items" db:"-"`
	ReturnedItems []ReturnedItem  `json:"returned_items" db:"-"`
}

// RentedItem is a book currently checked out.
type RentedItem struct {
	RentalID   uuid.UUID `json:"rental_id" db:"rental_id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	RentalDate time.Time `json:"rental_date" db:"rental_date"`
}

// OverdueItem is a checked-out book that passed its due date.
type OverdueItem struct {
	RentalID   uuid.UUID `json:"rental_id" db:"rental_id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	RentalDate time.Time `json:"rental_date" db:"rental_date"`
}

// ReturnedItem is an append-only record of a completed return.
type ReturnedItem struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RentalID   uuid.UUID `json:"rental_id" db:"rental_id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	ReturnDate time.Time `json:"return_date" db:"return_date"`
}

// NewRental creates the empty aggregate handed out on a user's first rent.
// Version 0 marks it as not yet persisted.
func NewRental(userID int64, now time.Time) *Rental {
	return &Rental{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        RentalStatusOK,
		LateFee:       decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
		RentedItems:   []RentedItem{},
		OverdueItems:  []OverdueItem{},
		ReturnedItems: []ReturnedItem{},
	}
}

// IsNew reports whether the aggregate has never been saved.
func (r *Rental) IsNew() bool {
	return r.Version == 0
}

// HeldCount is the number of books counted against the rental limit.
func (r *Rental) HeldCount() int {
	return len(r.RentedItems) + len(r.OverdueItems)
}

// Holds reports whether bookID is rented or overdue.
func (r *Rental) Holds(bookID int64) bool {
	return r.rentedIndex(bookID) >= 0 || r.overdueIndex(bookID) >= 0
}

// RentedBookIDs lists rented book ids in checkout order.
func (r *Rental) RentedBookIDs() []int64 {
	ids := make([]int64, len(r.RentedItems))
	for i, item := range r.RentedItems {
		ids[i] = item.BookID
	}
	return ids
}

// OverdueBookIDs lists overdue book ids in the order they went overdue.
func (r *Rental) OverdueBookIDs() []int64 {
	ids := make([]int64, len(r.OverdueItems))
	for i, item := range r.OverdueItems {
		ids[i] = item.BookID
	}
	return ids
}

// Clone returns a deep copy so transitions never touch the caller's value.
func (r *Rental) Clone() *Rental {
	c := *r
	c.RentedItems = append([]RentedItem{}, r.RentedItems...)
	c.OverdueItems = append([]OverdueItem{}, r.OverdueItems...)
	c.ReturnedItems = append([]ReturnedItem{}, r.ReturnedItems...)
	return &c
}

func (r *Rental) rentedIndex(bookID int64) int {
	for i, item := range r.RentedItems {
		if item.BookID == bookID {
			return i
		}
	}
	return -1
}

func (r *Rental) overdueIndex(bookID int64) int {
	for i, item := range r.OverdueItems {
		if item.BookID == bookID {
			return i
		}
	}
	return -1
}

func (r *Rental) removeRented(i int) RentedItem {
	item := r.RentedItems[i]
	r.RentedItems = append(r.RentedItems[:i], r.RentedItems[i+1:]...)
	return item
}

func (r *Rental) removeOverdue(i int) OverdueItem {
	item := r.OverdueItems[i]
	r.OverdueItems = append(r.OverdueItems[:i], r.OverdueItems[i+1:]...)
	return item
}

func (r *Rental) appendReturned(bookID int64, returnDate time.Time) {
	r.ReturnedItems = append(r.ReturnedItems, ReturnedItem{
		ID:         uuid.New(),
		RentalID:   r.ID,
		BookID:     bookID,
		ReturnDate: returnDate,
	})
}

// LateFeePayment reports the outcome of a late fee debit. Attempted is false
// when there was no fee to debit and the ledger was not called.
type LateFeePayment struct {
	Rental    *Rental         `json:"rental"`
	Amount    decimal.Decimal `json:"amount"`
	Attempted bool            `json:"attempted"`
}
