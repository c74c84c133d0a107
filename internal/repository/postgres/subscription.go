package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/pkg/database"
)

// SubscriptionRepository implements repository.SubscriptionRepository using PostgreSQL.
type SubscriptionRepository struct {
	db database.DBTX
}

// NewSubscriptionRepository creates a new PostgreSQL-backed subscription repository.
func NewSubscriptionRepository(db database.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert stores a subscription. An existing subscription for the same email
// gets the new preferences and keeps its ID and creation time.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, email, categories, sizes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET categories = EXCLUDED.categories, sizes = EXCLUDED.sizes, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		s.ID,
		s.Email,
		s.Categories,
		s.Sizes,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	return nil
}

// ListMatching returns subscriptions that include category and share at
// least one size with sizes.
func (r *SubscriptionRepository) ListMatching(ctx context.Context, category string, sizes []string) ([]domain.Subscription, error) {
	query := `
		SELECT id, email, categories, sizes, created_at, updated_at
		FROM subscriptions
		WHERE $1 = ANY(categories) AND sizes && $2
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, category, sizes)
	if err != nil {
		return nil, fmt.Errorf("list matching subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []domain.Subscription{}
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Categories,
			&s.Sizes,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription row: %w", err)
		}
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription rows: %w", err)
	}

	return subs, nil
}
