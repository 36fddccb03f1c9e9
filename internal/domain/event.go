package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventType selects which downstream call an Event becomes.
type EventType string

const (
	EventBookAvailability EventType = "book_availability"
	EventCatalog          EventType = "catalog"
	EventPointsCredit     EventType = "points_credit"
)

// BookAvailability is the status reported to the book service.
type BookAvailability string

const (
	BookAvailable   BookAvailability = "AVAILABLE"
	BookUnavailable BookAvailability = "UNAVAILABLE"
)

// CatalogEventType is the occurrence reported to the catalog.
type CatalogEventType string

const (
	CatalogRentBook   CatalogEventType = "RENT_BOOK"
	CatalogReturnBook CatalogEventType = "RETURN_BOOK"
)

// Event is a notification a transition asks the orchestration layer to emit
// once the new state is persisted. Only the fields relevant to Type are set.
type Event struct {
	Type         EventType
	UserID       int64
	BookID       int64
	Availability BookAvailability
	Catalog      CatalogEventType
	Amount       decimal.Decimal
}

func (e Event) String() string {
	switch e.Type {
	case EventBookAvailability:
		return fmt.Sprintf("%s(book=%d,%s)", e.Type, e.BookID, e.Availability)
	case EventCatalog:
		return fmt.Sprintf("%s(book=%d,%s)", e.Type, e.BookID, e.Catalog)
	case EventPointsCredit:
		return fmt.Sprintf("%s(user=%d,%s)", e.Type, e.UserID, e.Amount)
	}
	return string(e.Type)
}

func bookAvailabilityEvent(bookID int64, status BookAvailability) Event {
	return Event{Type: EventBookAvailability, BookID: bookID, Availability: status}
}

func catalogEvent(bookID int64, eventType CatalogEventType) Event {
	return Event{Type: EventCatalog, BookID: bookID, Catalog: eventType}
}

func pointsCreditEvent(userID int64, amount decimal.Decimal) Event {
	return Event{Type: EventPointsCredit, UserID: userID, Amount: amount}
}
