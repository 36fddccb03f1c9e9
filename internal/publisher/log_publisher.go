package publisher

import (
	"context"
	"log/slog"

	"github.com/segyhp/rental-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// LogPublisher only logs notifications. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) NotifyBookAvailability(ctx context.Context, bookID int64, status domain.BookAvailability) error {
	p.logger.InfoContext(ctx, "book availability changed", "book_id", bookID, "status", status)
	return nil
}

func (p *LogPublisher) NotifyCatalogEvent(ctx context.Context, bookID int64, eventType domain.CatalogEventType) error {
	p.logger.InfoContext(ctx, "catalog event", "book_id", bookID, "event_type", eventType)
	return nil
}

func (p *LogPublisher) CreditPoints(ctx context.Context, userID int64, amount decimal.Decimal) error {
	p.logger.InfoContext(ctx, "points credited", "user_id", userID, "points", amount.String())
	return nil
}
