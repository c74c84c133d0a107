package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/validator"
)

// SubscriptionService records notify-me requests.
type SubscriptionService struct {
	repo     repository.SubscriptionRepository
	producer *event.Producer
	logger   *slog.Logger
}

func NewSubscriptionService(repo repository.SubscriptionRepository, producer *event.Producer, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// Subscribe stores the categories and sizes email wants to hear about,
// replacing any earlier preferences of the same email.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string, categories, sizes []string) (*domain.Subscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.Var(email, "required,email"); err != nil {
		return nil, apperrors.InvalidInput("a valid email is required")
	}

	categories = dedupe(categories)
	sizes = dedupe(sizes)

	if len(categories) == 0 {
		return nil, apperrors.InvalidInput("select at least one category")
	}
	for _, c := range categories {
		if !domain.IsValidCategory(c) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", c))
		}
	}
	if len(sizes) == 0 {
		return nil, apperrors.InvalidInput("select at least one size")
	}
	for _, size := range sizes {
		if !domain.IsValidSize(size) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown size %q", size))
		}
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:         uuid.New().String(),
		Email:      email,
		Categories: categories,
		Sizes:      sizes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	if err := s.producer.PublishSubscriptionCreated(ctx, sub); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish subscription.created event",
			slog.String("subscription_id", sub.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "notify-me subscription saved",
		slog.String("subscription_id", sub.ID),
		slog.Int("categories", len(categories)),
		slog.Int("sizes", len(sizes)),
	)

	return sub, nil
}

// dedupe trims values and drops blanks and repeats, keeping first occurrences.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
