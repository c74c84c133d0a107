package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/dressrental/internal/domain"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

var rentalColumnNames = []string{
	"id", "user_id", "dress_id", "color", "size", "start_date", "end_date",
	"days", "total_price", "status", "created_at", "updated_at",
}

func sampleRental(id string) *domain.Rental {
	return &domain.Rental{
		ID:         id,
		UserID:     "user-1",
		DressID:    3,
		Color:      "Ruby",
		Size:       "18",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Days:       3,
		TotalPrice: 13500,
		Status:     domain.RentalStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func rentalArgs(r *domain.Rental) []any {
	return []any{
		r.ID, r.UserID, r.DressID, r.Color, r.Size, r.StartDate, r.EndDate,
		r.Days, r.TotalPrice, r.Status, r.CreatedAt, r.UpdatedAt,
	}
}

func newRentalTestFixture(t *testing.T) (*RentalRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewRentalRepository(mock), mock
}

func TestRentalRepository_CreateBatch_Success(t *testing.T) {
	repo, mock := newRentalTestFixture(t)
	defer mock.Close()

	a, b := sampleRental("r-1"), sampleRental("r-2")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rentals").WithArgs(rentalArgs(a)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO rentals").WithArgs(rentalArgs(b)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBatch(context.Background(), []*domain.Rental{a, b}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_CreateBatch_RollsBackOnFailure(t *testing.T) {
	repo, mock := newRentalTestFixture(t)
	defer mock.Close()

	a, b := sampleRental("r-1"), sampleRental("r-2")
	b.DressID = 404

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rentals").WithArgs(rentalArgs(a)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO rentals").WithArgs(rentalArgs(b)...).WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []*domain.Rental{a, b})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_GetByID(t *testing.T) {
	repo, mock := newRentalTestFixture(t)
	defer mock.Close()

	r := sampleRental("r-1")
	mock.ExpectQuery("FROM rentals WHERE id =").
		WithArgs("r-1").
		WillReturnRows(pgxmock.NewRows(rentalColumnNames).AddRow(rentalArgs(r)...))
	mock.ExpectQuery("FROM rentals WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, *r, *got)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_ListByUser(t *testing.T) {
	repo, mock := newRentalTestFixture(t)
	defer mock.Close()

	r := sampleRental("r-1")
	cols := append(append([]string{}, rentalColumnNames...), "total_count")
	mock.ExpectQuery("FROM rentals WHERE user_id =").
		WithArgs("user-1", 10, 10).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(rentalArgs(r), 11)...))

	rentals, total, err := repo.ListByUser(context.Background(), "user-1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, rentals, 1)
	assert.Equal(t, "r-1", rentals[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_UpdateStatus(t *testing.T) {
	repo, mock := newRentalTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE rentals SET status =").
		WithArgs(domain.RentalStatusCancelled, now, "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE rentals SET status =").
		WithArgs(domain.RentalStatusCancelled, now, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "r-1", domain.RentalStatusCancelled, now))

	err := repo.UpdateStatus(context.Background(), "missing", domain.RentalStatusCancelled, now)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
