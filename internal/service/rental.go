package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/pagination"
)

const maxCheckoutLines = 20

// RentalService turns cart lines into rentals and manages their status.
type RentalService struct {
	repo     repository.RentalRepository
	dresses  repository.DressRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewRentalService creates a new rental service.
func NewRentalService(
	repo repository.RentalRepository,
	dresses repository.DressRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *RentalService {
	return &RentalService{
		repo:     repo,
		dresses:  dresses,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RentalInput describes one dress reserved for a date range.
type RentalInput struct {
	DressID   int64
	Color     string
	Size      string
	StartDate time.Time
	EndDate   time.Time
}

// CreateRental reserves a single dress. Days and total are computed here with
// the cart pricing rules, never taken from the client.
func (s *RentalService) CreateRental(ctx context.Context, userID string, input RentalInput) (*domain.Rental, error) {
	rentals, err := s.Checkout(ctx, userID, []RentalInput{input})
	if err != nil {
		return nil, err
	}
	return &rentals[0], nil
}

// Checkout creates one pending rental per line. Either every line is stored
// or none is.
func (s *RentalService) Checkout(ctx context.Context, userID string, lines []RentalInput) ([]domain.Rental, error) {
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	if len(lines) > maxCheckoutLines {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d items can be checked out at once", maxCheckoutLines))
	}

	now := s.now()
	dresses := make(map[int64]*domain.Dress, len(lines))
	batch := make([]*domain.Rental, 0, len(lines))

	for i, line := range lines {
		d, ok := dresses[line.DressID]
		if !ok {
			var err error
			d, err = s.dresses.GetByID(ctx, line.DressID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					return nil, apperrors.NotFound("dress", fmt.Sprint(line.DressID))
				}
				return nil, fmt.Errorf("get dress: %w", err)
			}
			dresses[line.DressID] = d
		}

		if err := validateRentalLine(d, line); err != nil {
			if len(lines) > 1 {
				return nil, apperrors.InvalidInput(fmt.Sprintf("item %d: %s", i+1, appMessage(err)))
			}
			return nil, err
		}

		batch = append(batch, &domain.Rental{
			ID:         uuid.New().String(),
			UserID:     userID,
			DressID:    d.ID,
			Color:      line.Color,
			Size:       line.Size,
			StartDate:  line.StartDate,
			EndDate:    line.EndDate,
			Days:       domain.RentalDays(line.StartDate, line.EndDate),
			TotalPrice: domain.LineTotal(*d, line.StartDate, line.EndDate),
			Status:     domain.RentalStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create rentals: %w", err)
	}

	out := make([]domain.Rental, 0, len(batch))
	var total int64
	for _, r := range batch {
		if err := s.producer.PublishRentalCreated(ctx, r); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish rental.created event",
				slog.String("rental_id", r.ID),
				slog.String("error", err.Error()),
			)
		}
		total += r.TotalPrice
		out = append(out, *r)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("user_id", userID),
		slog.Int("rentals", len(out)),
		slog.Int64("total", total),
	)

	return out, nil
}

// ListRentals returns one page of the user's rentals, newest first.
func (s *RentalService) ListRentals(ctx context.Context, userID string, page pagination.Params) ([]domain.Rental, int, error) {
	rentals, total, err := s.repo.ListByUser(ctx, userID, page.Page, page.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list rentals: %w", err)
	}
	return rentals, total, nil
}

// GetRental returns a rental owned by userID. Rentals of other users are
// reported as not found.
func (s *RentalService) GetRental(ctx context.Context, userID, id string) (*domain.Rental, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("rental", id)
		}
		return nil, fmt.Errorf("get rental: %w", err)
	}
	if r.UserID != userID {
		return nil, apperrors.NotFound("rental", id)
	}
	return r, nil
}

// UpdateStatus moves a rental to status. Setting the current status again is
// a no-op; other moves must follow the allowed transitions.
func (s *RentalService) UpdateStatus(ctx context.Context, userID, id, status string) (*domain.Rental, error) {
	if !domain.IsValidRentalStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}

	r, err := s.GetRental(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if r.Status == status {
		return r, nil
	}
	if !domain.CanTransition(r.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("rental cannot move from %s to %s", r.Status, status))
	}

	oldStatus := r.Status
	r.Status = status
	r.UpdatedAt = s.now()

	if err := s.repo.UpdateStatus(ctx, r.ID, r.Status, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update rental status: %w", err)
	}

	if err := s.producer.PublishRentalStatusChanged(ctx, r, oldStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rental.status_changed event",
			slog.String("rental_id", r.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "rental status changed",
		slog.String("rental_id", r.ID),
		slog.String("from", oldStatus),
		slog.String("to", status),
	)

	return r, nil
}

func validateRentalLine(d *domain.Dress, line RentalInput) error {
	switch {
	case !d.Available:
		return apperrors.InvalidInput(fmt.Sprintf("%s is not available", d.Name))
	case strings.TrimSpace(line.Color) == "":
		return apperrors.InvalidInput("color is required")
	case !d.HasColor(line.Color):
		return apperrors.InvalidInput(fmt.Sprintf("%s is not offered in %s", d.Name, line.Color))
	case strings.TrimSpace(line.Size) == "":
		return apperrors.InvalidInput("size is required")
	case !d.HasSize(line.Size):
		return apperrors.InvalidInput(fmt.Sprintf("%s is not offered in size %s", d.Name, line.Size))
	case line.StartDate.IsZero() || line.EndDate.IsZero():
		return apperrors.InvalidInput("start and end dates are required")
	case line.EndDate.Before(line.StartDate):
		return apperrors.InvalidInput("end date must not be before start date")
	}
	return nil
}

func appMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
