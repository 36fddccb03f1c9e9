package publisher

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stream names, appended to the configured prefix.
const (
	StreamBookStatus = "book-status"
	StreamCatalog    = "catalog"
	StreamPoints     = "points"
)

type BookStatusMessage struct {
	BookID     int64     `json:"bookId"`
	BookStatus string    `json:"bookStatus"`
	OccurredAt time.Time `json:"occurredAt"`
}

type CatalogMessage struct {
	BookID     int64     `json:"bookId"`
	EventType  string    `json:"eventType"`
	OccurredAt time.Time `json:"occurredAt"`
}

type PointsMessage struct {
	UserID     int64           `json:"userId"`
	Points     decimal.Decimal `json:"points"`
	OccurredAt time.Time       `json:"occurredAt"`
}
