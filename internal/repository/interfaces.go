package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-engine/internal/domain"
)

// RentalRepository defines the interface for rental aggregate persistence.
//
// Save is a compare-and-swap on Rental.Version: a new aggregate (version 0)
// is inserted only if the user has none yet, an existing one is updated only
// if the stored version still matches. Losers get ErrConcurrentModification.
type RentalRepository interface {
	// Save inserts or updates the aggregate and all of its items, returning the stored copy
	Save(ctx context.Context, rental *domain.Rental) (*domain.Rental, error)

	// GetByID retrieves a rental by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error)

	// GetByUserID retrieves the rental owned by a user
	GetByUserID(ctx context.Context, userID int64) (*domain.Rental, error)

	// Delete removes a rental and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of rentals ordered by creation time
	List(ctx context.Context, page domain.PageRequest) (*domain.Page, error)

	// ListOverdueCandidates finds rented items with a rental date on or before cutoff, grouped by user
	ListOverdueCandidates(ctx context.Context, cutoff time.Time) ([]domain.OverdueCandidate, error)
}
