package service

import (
	"context"
	"errors"
	"fmt"

	customError "github.com/segyhp/rental-engine/pkg/errors"
	"github.com/segyhp/rental-engine/pkg/utils"
)

type SweepResult struct {
	Users  int
	Books  int
	Failed int
}

// SweepOverdue marks every rented book past its due date as overdue, one
// MarkOverdue call (and so one late fee) per user.
func (s *RentalService) SweepOverdue(ctx context.Context) (*SweepResult, error) {
	cutoff := utils.OverdueCutoff(s.today(), s.rentalPeriod)

	candidates, err := s.repo.ListOverdueCandidates(ctx, cutoff)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	result := &SweepResult{}
	var errs []error
	for _, candidate := range candidates {
		if err = ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		_, err = s.MarkOverdue(ctx, candidate.UserID, candidate.BookIDs)
		switch {
		case err == nil:
			result.Users++
			result.Books += len(candidate.BookIDs)
		case errors.Is(err, customError.ErrNoMatchingRental):
			// returned between the scan and the update
		default:
			result.Failed++
			errs = append(errs, fmt.Errorf("user %d: %w", candidate.UserID, err))
		}
	}

	s.logger.InfoContext(ctx, "overdue sweep finished",
		"cutoff", cutoff.Format("2006-01-02"),
		"users", result.Users,
		"books", result.Books,
		"failed", result.Failed,
	)

	return result, errors.Join(errs...)
}
