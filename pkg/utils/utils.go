package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// Today returns midnight of t's calendar day in loc.
func Today(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// CalculateDueDate returns the day a rental started on rentalDate must be back.
func CalculateDueDate(rentalDate time.Time, periodDays int) time.Time {
	return rentalDate.AddDate(0, 0, periodDays)
}

// IsOverdue reports whether an item rented on rentalDate is past due on today.
// The due date itself is still within the rental period.
func IsOverdue(rentalDate time.Time, periodDays int, today time.Time) bool {
	return today.After(CalculateDueDate(rentalDate, periodDays))
}

// OverdueCutoff is the latest rental date that is already overdue on today.
func OverdueCutoff(today time.Time, periodDays int) time.Time {
	return today.AddDate(0, 0, -(periodDays + 1))
}

// PointsForBooks is the credit granted for renting bookCount books.
func PointsForBooks(perBook decimal.Decimal, bookCount int) decimal.Decimal {
	return perBook.Mul(decimal.NewFromInt(int64(bookCount)))
}

// ParsePoints parses a non-negative whole number of points.
func ParsePoints(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.IsInteger() {
		return decimal.Zero, false
	}
	return d, true
}
