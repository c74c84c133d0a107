package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

// WishlistService manages the single wishlist each user has.
type WishlistService struct {
	repo     repository.WishlistRepository
	dresses  repository.DressRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(
	repo repository.WishlistRepository,
	dresses repository.DressRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *WishlistService {
	return &WishlistService{
		repo:     repo,
		dresses:  dresses,
		producer: producer,
		logger:   logger,
	}
}

// GetWishlist returns the user's wishlist, or an empty one without an ID when
// the user never added anything.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*domain.WishlistSnapshot, error) {
	snap, err := s.repo.Get(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			empty := domain.EmptyWishlist()
			return &empty, nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return snap, nil
}

// AddItem saves a dress to the user's wishlist, creating the wishlist on
// first use. It reports false when the dress was already saved.
func (s *WishlistService) AddItem(ctx context.Context, userID string, dressID int64) (bool, error) {
	if _, err := s.dresses.GetByID(ctx, dressID); err != nil {
		if apperrors.IsNotFound(err) {
			return false, apperrors.NotFound("dress", fmt.Sprint(dressID))
		}
		return false, fmt.Errorf("get dress: %w", err)
	}

	added, err := s.repo.AddItem(ctx, uuid.New().String(), userID, dressID)
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	if !added {
		return false, nil
	}

	if err := s.producer.PublishWishlistItemAdded(ctx, userID, dressID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.item_added event",
			slog.String("user_id", userID),
			slog.Int64("dress_id", dressID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wishlist item added",
		slog.String("user_id", userID),
		slog.Int64("dress_id", dressID),
	)

	return true, nil
}

// RemoveItem removes a dress from the user's wishlist.
func (s *WishlistService) RemoveItem(ctx context.Context, userID string, dressID int64) error {
	if err := s.repo.RemoveItem(ctx, userID, dressID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFound("wishlist item", fmt.Sprint(dressID))
		}
		return fmt.Errorf("remove wishlist item: %w", err)
	}

	if err := s.producer.PublishWishlistItemRemoved(ctx, userID, dressID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.item_removed event",
			slog.String("user_id", userID),
			slog.Int64("dress_id", dressID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wishlist item removed",
		slog.String("user_id", userID),
		slog.Int64("dress_id", dressID),
	)

	return nil
}

// Clear empties the user's wishlist.
func (s *WishlistService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
