package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors
var (
	ErrCapacityExceeded       = errors.New("rental capacity exceeded")
	ErrAlreadyOverdue         = errors.New("rental is on overdue hold")
	ErrNoMatchingRental       = errors.New("no matching rental")
	ErrRentalNotFound         = errors.New("rental not found")
	ErrConcurrentModification = errors.New("rental was modified concurrently")
	ErrPaymentRejected        = errors.New("late fee payment rejected")
	ErrDownstreamNotifyFailed = errors.New("downstream notification failed")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrBookAlreadyRented      = errors.New("book already rented")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeCapacityExceeded       = "CAPACITY_EXCEEDED"
	ErrCodeAlreadyOverdue         = "ALREADY_OVERDUE"
	ErrCodeNoMatchingRental       = "NO_MATCHING_RENTAL"
	ErrCodeRentalNotFound         = "RENTAL_NOT_FOUND"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodePaymentRejected        = "PAYMENT_REJECTED"
	ErrCodeDownstreamNotifyFailed = "DOWNSTREAM_NOTIFY_FAILED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeBookAlreadyRented      = "BOOK_ALREADY_RENTED"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
)

func WrapCapacityExceeded(held, requested, limit int) *BusinessError {
	return NewBusinessError(
		ErrCodeCapacityExceeded,
		fmt.Sprintf("cannot rent %d more book(s): %d held, limit is %d", requested, held, limit),
		ErrCapacityExceeded,
	)
}

func WrapAlreadyOverdue(userID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeAlreadyOverdue,
		fmt.Sprintf("user %d has overdue items and cannot rent", userID),
		ErrAlreadyOverdue,
	)
}

func WrapNoMatchingRental(userID int64, bookIDs []int64) *BusinessError {
	return NewBusinessError(
		ErrCodeNoMatchingRental,
		fmt.Sprintf("user %d holds none of the books %s", userID, joinIDs(bookIDs)),
		ErrNoMatchingRental,
	)
}

// WrapNoRentalForUser is the NoMatchingRental variant used when the user has never rented.
func WrapNoRentalForUser(userID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeNoMatchingRental,
		fmt.Sprintf("user %d has no rental", userID),
		ErrNoMatchingRental,
	)
}

func WrapRentalNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeRentalNotFound,
		fmt.Sprintf("Rental with ID %s not found", id),
		ErrRentalNotFound,
	)
}

func WrapConcurrentModification(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("Rental %s was changed by another request", id),
		ErrConcurrentModification,
	)
}

func WrapPaymentRejected(userID int64, err error) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentRejected,
		fmt.Sprintf("points ledger rejected late fee debit for user %d: %v", userID, err),
		ErrPaymentRejected,
	)
}

func WrapDownstreamNotifyFailed(event string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDownstreamNotifyFailed,
		fmt.Sprintf("publishing %s failed: %v", event, err),
		ErrDownstreamNotifyFailed,
	)
}

func WrapInvalidRequest(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		message,
		ErrInvalidRequest,
	)
}

func WrapBookAlreadyRented(bookID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeBookAlreadyRented,
		fmt.Sprintf("book %d is already held by this user", bookID),
		ErrBookAlreadyRented,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRentalNotFound), errors.Is(err, ErrNoMatchingRental):
		return http.StatusNotFound
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyOverdue),
		errors.Is(err, ErrBookAlreadyRented),
		errors.Is(err, ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentRejected):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
