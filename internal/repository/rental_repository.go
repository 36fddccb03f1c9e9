package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/rental-engine/internal/domain"
	customError "github.com/segyhp/rental-engine/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

var rentalColumns = []interface{}{"id", "user_id", "status", "late_fee", "version", "created_at", "updated_at"}

type rentalRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRentalRepository(db *sqlx.DB) RentalRepository {
	return &rentalRepository{db: db, now: time.Now}
}

func (r *rentalRepository) Save(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	saved := rental.Clone()
	saved.UpdatedAt = r.now()
	saved.Version = rental.Version + 1

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	if rental.IsNew() {
		result, err = tx.ExecContext(ctx, `
			INSERT INTO rentals (id, user_id, status, late_fee, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING
		`,
			saved.ID,
			saved.UserID,
			saved.Status,
			saved.LateFee,
			saved.Version,
			saved.CreatedAt,
			saved.UpdatedAt,
		)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE rentals
			SET status = $2, late_fee = $3, version = $4, updated_at = $5
			WHERE id = $1 AND version = $6
		`,
			saved.ID,
			saved.Status,
			saved.LateFee,
			saved.Version,
			saved.UpdatedAt,
			rental.Version,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("write rental: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, customError.WrapConcurrentModification(rental.ID.String())
	}

	if err = r.replaceItems(ctx, tx, saved); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rental: %w", err)
	}

	return saved, nil
}

// replaceItems rewrites the rented and overdue sets and appends returned
// items that are not stored yet. Slice order is kept through seq.
func (r *rentalRepository) replaceItems(ctx context.Context, tx *sqlx.Tx, rental *domain.Rental) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rented_items WHERE rental_id = $1`, rental.ID); err != nil {
		return fmt.Errorf("clear rented items: %w", err)
	}
	for _, item := range rental.RentedItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rented_items (rental_id, book_id, rental_date)
			VALUES ($1, $2, $3)
		`, rental.ID, item.BookID, item.RentalDate)
		if err != nil {
			return fmt.Errorf("insert rented item %d: %w", item.BookID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM overdue_items WHERE rental_id = $1`, rental.ID); err != nil {
		return fmt.Errorf("clear overdue items: %w", err)
	}
	for _, item := range rental.OverdueItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO overdue_items (rental_id, book_id, rental_date)
			VALUES ($1, $2, $3)
		`, rental.ID, item.BookID, item.RentalDate)
		if err != nil {
			return fmt.Errorf("insert overdue item %d: %w", item.BookID, err)
		}
	}

	for _, item := range rental.ReturnedItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO returned_items (id, rental_id, book_id, return_date)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, item.ID, rental.ID, item.BookID, item.ReturnDate)
		if err != nil {
			return fmt.Errorf("insert returned item %d: %w", item.BookID, err)
		}
	}

	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	return r.getOne(ctx, goqu.Ex{"id": id.String()}, id.String())
}

func (r *rentalRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Rental, error) {
	return r.getOne(ctx, goqu.Ex{"user_id": userID}, fmt.Sprintf("user:%d", userID))
}

func (r *rentalRepository) getOne(ctx context.Context, where goqu.Ex, label string) (*domain.Rental, error) {
	query, args, err := dialect.From("rentals").Select(rentalColumns...).Where(where).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build rental query: %w", err)
	}

	var rental domain.Rental
	if err = r.db.GetContext(ctx, &rental, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapRentalNotFound(label)
		}
		return nil, err
	}

	rentals := []*domain.Rental{&rental}
	if err = r.loadItems(ctx, rentals); err != nil {
		return nil, err
	}

	return &rental, nil
}

func (r *rentalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return customError.WrapRentalNotFound(id.String())
	}

	return nil
}

func (r *rentalRepository) List(ctx context.Context, page domain.PageRequest) (*domain.Page, error) {
	page = page.Normalize()

	countQuery, countArgs, err := dialect.From("rentals").Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err = r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, err
	}

	query, args, err := dialect.From("rentals").
		Select(rentalColumns...).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rentals []*domain.Rental
	if err = r.db.SelectContext(ctx, &rentals, query, args...); err != nil {
		return nil, err
	}

	if err = r.loadItems(ctx, rentals); err != nil {
		return nil, err
	}

	if rentals == nil {
		rentals = []*domain.Rental{}
	}

	return &domain.Page{Items: rentals, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (r *rentalRepository) ListOverdueCandidates(ctx context.Context, cutoff time.Time) ([]domain.OverdueCandidate, error) {
	query, args, err := dialect.From(goqu.T("rented_items").As("i")).
		Join(goqu.T("rentals").As("r"), goqu.On(goqu.I("r.id").Eq(goqu.I("i.rental_id")))).
		Select(goqu.I("r.user_id"), goqu.I("i.book_id")).
		Where(goqu.I("i.rental_date").Lte(cutoff)).
		Order(goqu.I("r.user_id").Asc(), goqu.I("i.seq").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}

	var rows []struct {
		UserID int64 `db:"user_id"`
		BookID int64 `db:"book_id"`
	}
	if err = r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	var candidates []domain.OverdueCandidate
	for _, row := range rows {
		if n := len(candidates); n > 0 && candidates[n-1].UserID == row.UserID {
			candidates[n-1].BookIDs = append(candidates[n-1].BookIDs, row.BookID)
			continue
		}
		candidates = append(candidates, domain.OverdueCandidate{UserID: row.UserID, BookIDs: []int64{row.BookID}})
	}

	return candidates, nil
}

// loadItems fills the three item sets for every rental with one query per table.
func (r *rentalRepository) loadItems(ctx context.Context, rentals []*domain.Rental) error {
	if len(rentals) == 0 {
		return nil
	}

	ids := make([]interface{}, len(rentals))
	byID := make(map[uuid.UUID]*domain.Rental, len(rentals))
	for i, rental := range rentals {
		ids[i] = rental.ID.String()
		byID[rental.ID] = rental
		rental.RentedItems = []domain.RentedItem{}
		rental.OverdueItems = []domain.OverdueItem{}
		rental.ReturnedItems = []domain.ReturnedItem{}
	}

	var rented []domain.RentedItem
	if err := r.selectItems(ctx, &rented, "rented_items", []interface{}{"rental_id", "book_id", "rental_date"}, ids); err != nil {
		return fmt.Errorf("load rented items: %w", err)
	}
	for _, item := range rented {
		owner := byID[item.RentalID]
		owner.RentedItems = append(owner.RentedItems, item)
	}

	var overdue []domain.OverdueItem
	if err := r.selectItems(ctx, &overdue, "overdue_items", []interface{}{"rental_id", "book_id", "rental_date"}, ids); err != nil {
		return fmt.Errorf("load overdue items: %w", err)
	}
	for _, item := range overdue {
		owner := byID[item.RentalID]
		owner.OverdueItems = append(owner.OverdueItems, item)
	}

	var returned []domain.ReturnedItem
	if err := r.selectItems(ctx, &returned, "returned_items", []interface{}{"id", "rental_id", "book_id", "return_date"}, ids); err != nil {
		return fmt.Errorf("load returned items: %w", err)
	}
	for _, item := range returned {
		owner := byID[item.RentalID]
		owner.ReturnedItems = append(owner.ReturnedItems, item)
	}

	return nil
}

func (r *rentalRepository) selectItems(ctx context.Context, dest interface{}, table string, columns []interface{}, rentalIDs []interface{}) error {
	query, args, err := dialect.From(table).
		Select(columns...).
		Where(goqu.C("rental_id").In(rentalIDs...)).
		Order(goqu.C("seq").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	return r.db.SelectContext(ctx, dest, query, args...)
}
