package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/pkg/database"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

const rentalColumns = `id, user_id, dress_id, color, size, start_date, end_date, days, total_price, status, created_at, updated_at`

// RentalRepository implements repository.RentalRepository using PostgreSQL.
type RentalRepository struct {
	db database.DBTX
}

// NewRentalRepository creates a new PostgreSQL-backed rental repository.
func NewRentalRepository(db database.DBTX) *RentalRepository {
	return &RentalRepository{db: db}
}

// CreateBatch inserts all rentals in one transaction. Either every rental is
// stored or none is.
func (r *RentalRepository) CreateBatch(ctx context.Context, rentals []*domain.Rental) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rental tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO rentals (` + rentalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, rt := range rentals {
		if _, err := tx.Exec(ctx, query,
			rt.ID,
			rt.UserID,
			rt.DressID,
			rt.Color,
			rt.Size,
			rt.StartDate,
			rt.EndDate,
			rt.Days,
			rt.TotalPrice,
			rt.Status,
			rt.CreatedAt,
			rt.UpdatedAt,
		); err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.NotFound("dress", strconv.FormatInt(rt.DressID, 10))
			}
			return fmt.Errorf("insert rental: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rental tx: %w", err)
	}

	return nil
}

// GetByID retrieves a rental by its ID.
func (r *RentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

	rt, err := scanRental(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan rental: %w", err)
	}
	return rt, nil
}

// ListByUser returns one page of the user's rentals, newest first, and the total count.
func (r *RentalRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rental, int, error) {
	if perPage <= 0 {
		perPage = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}

	query := `
		SELECT ` + rentalColumns + `, count(*) OVER() AS total_count
		FROM rentals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	var (
		rentals    = []domain.Rental{}
		totalCount int
	)
	for rows.Next() {
		var rt domain.Rental
		if err := rows.Scan(
			&rt.ID,
			&rt.UserID,
			&rt.DressID,
			&rt.Color,
			&rt.Size,
			&rt.StartDate,
			&rt.EndDate,
			&rt.Days,
			&rt.TotalPrice,
			&rt.Status,
			&rt.CreatedAt,
			&rt.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan rental row: %w", err)
		}
		rentals = append(rentals, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rental rows: %w", err)
	}

	return rentals, totalCount, nil
}

// UpdateStatus sets the status of a rental.
func (r *RentalRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	ct, err := r.db.Exec(ctx, `UPDATE rentals SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update rental status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("rental", id)
	}

	return nil
}

func scanRental(row pgx.Row) (*domain.Rental, error) {
	var rt domain.Rental
	if err := row.Scan(
		&rt.ID,
		&rt.UserID,
		&rt.DressID,
		&rt.Color,
		&rt.Size,
		&rt.StartDate,
		&rt.EndDate,
		&rt.Days,
		&rt.TotalPrice,
		&rt.Status,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rt, nil
}
