package publisher

import (
	"context"

	"github.com/segyhp/rental-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// Publisher delivers rental notifications to the book, catalog and points
// services. Calls are fire-and-forget: an error means the message was not
// enqueued, never that a consumer rejected it.
type Publisher interface {
	// NotifyBookAvailability reports a book becoming available or unavailable
	NotifyBookAvailability(ctx context.Context, bookID int64, status domain.BookAvailability) error

	// NotifyCatalogEvent reports a rent or return to the catalog
	NotifyCatalogEvent(ctx context.Context, bookID int64, eventType domain.CatalogEventType) error

	// CreditPoints grants points to a user
	CreditPoints(ctx context.Context, userID int64, amount decimal.Decimal) error
}
