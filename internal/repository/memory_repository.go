package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/rental-engine/internal/domain"
	customError "github.com/segyhp/rental-engine/pkg/errors"
)

type memoryRentalRepository struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*domain.Rental
	byUser map[int64]uuid.UUID
	now    func() time.Time
}

// NewMemoryRentalRepository returns a process-local RentalRepository with the
// same version checks as the Postgres one.
func NewMemoryRentalRepository() RentalRepository {
	return &memoryRentalRepository{
		byID:   make(map[uuid.UUID]*domain.Rental),
		byUser: make(map[int64]uuid.UUID),
		now:    time.Now,
	}
}

func (m *memoryRentalRepository) Save(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rental.IsNew() {
		_, idTaken := m.byID[rental.ID]
		_, userTaken := m.byUser[rental.UserID]
		if idTaken || userTaken {
			return nil, customError.WrapConcurrentModification(rental.ID.String())
		}
	} else {
		stored, ok := m.byID[rental.ID]
		if !ok || stored.Version != rental.Version {
			return nil, customError.WrapConcurrentModification(rental.ID.String())
		}
	}

	saved := rental.Clone()
	saved.Version = rental.Version + 1
	saved.UpdatedAt = m.now()

	m.byID[saved.ID] = saved
	m.byUser[saved.UserID] = saved.ID

	return saved.Clone(), nil
}

func (m *memoryRentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rental, ok := m.byID[id]
	if !ok {
		return nil, customError.WrapRentalNotFound(id.String())
	}
	return rental.Clone(), nil
}

func (m *memoryRentalRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byUser[userID]
	if !ok {
		return nil, customError.WrapRentalNotFound(fmt.Sprintf("user:%d", userID))
	}
	return m.byID[id].Clone(), nil
}

func (m *memoryRentalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rental, ok := m.byID[id]
	if !ok {
		return customError.WrapRentalNotFound(id.String())
	}
	delete(m.byID, id)
	delete(m.byUser, rental.UserID)
	return nil
}

func (m *memoryRentalRepository) List(ctx context.Context, page domain.PageRequest) (*domain.Page, error) {
	page = page.Normalize()

	m.mu.Lock()
	all := make([]*domain.Rental, 0, len(m.byID))
	for _, rental := range m.byID {
		all = append(all, rental.Clone())
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}

	return &domain.Page{Items: all[start:end], Total: int64(len(all)), Page: page.Page, Size: page.Size}, nil
}

func (m *memoryRentalRepository) ListOverdueCandidates(ctx context.Context, cutoff time.Time) ([]domain.OverdueCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []domain.OverdueCandidate
	for _, rental := range m.byID {
		var bookIDs []int64
		for _, item := range rental.RentedItems {
			if !item.RentalDate.After(cutoff) {
				bookIDs = append(bookIDs, item.BookID)
			}
		}
		if len(bookIDs) > 0 {
			candidates = append(candidates, domain.OverdueCandidate{UserID: rental.UserID, BookIDs: bookIDs})
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].UserID < candidates[j].UserID })
	return candidates, nil
}
