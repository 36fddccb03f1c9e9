package service

import (
	"context"

	"github.com/segyhp/rental-engine/internal/domain"
	customError "github.com/segyhp/rental-engine/pkg/errors"
)

// dispatch delivers committed events in order. Failures are logged and
// counted but never undo the committed state.
func (s *RentalService) dispatch(ctx context.Context, userID int64, events []domain.Event) int {
	// the rental is already committed, so a canceled request must not stop delivery
	base := context.WithoutCancel(ctx)

	failed := 0
	for _, event := range events {
		if err := s.publish(base, event); err != nil {
			failed++
			notifyErr := customError.WrapDownstreamNotifyFailed(event.String(), err)
			s.logger.ErrorContext(ctx, "downstream notification failed",
				"user_id", userID,
				"book_id", event.BookID,
				"event_type", event.Type,
				"code", notifyErr.Code,
				"error", notifyErr,
			)
		}
	}
	return failed
}

func (s *RentalService) publish(ctx context.Context, event domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	switch event.Type {
	case domain.EventBookAvailability:
		return s.publisher.NotifyBookAvailability(ctx, event.BookID, event.Availability)
	case domain.EventCatalog:
		return s.publisher.NotifyCatalogEvent(ctx, event.BookID, event.Catalog)
	case domain.EventPointsCredit:
		return s.publisher.CreditPoints(ctx, event.UserID, event.Amount)
	}
	return nil
}
