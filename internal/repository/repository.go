package repository

import (
	"context"
	"time"

	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/domain"
)

// DressFilter is the part of a catalog filter that is pushed down to the
// store. Sizes and Colors match dresses offering any of the values.
type DressFilter struct {
	Category  string
	Sizes     []string
	Colors    []string
	Available *bool
	Featured  *bool
}

// DressFilterFrom derives the pushdown filter from a catalog filter.
func DressFilterFrom(f catalog.Filter) DressFilter {
	var sizes []string
	if f.Size != "" {
		sizes = append(sizes, f.Size)
	}
	sizes = append(sizes, f.Sizes...)

	return DressFilter{
		Category:  f.Category,
		Sizes:     sizes,
		Colors:    f.Colors,
		Available: f.Available,
		Featured:  f.Featured,
	}
}

// DressRepository defines the interface for dress persistence operations.
type DressRepository interface {
	// Create inserts a dress and sets its ID.
	Create(ctx context.Context, dress *domain.Dress) error

	// GetByID retrieves a dress by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Dress, error)

	// GetBySlug retrieves a dress by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Dress, error)

	// List returns every dress matching the filter, newest first.
	List(ctx context.Context, filter DressFilter) ([]domain.Dress, error)

	// ListFeatured returns up to limit available featured dresses.
	ListFeatured(ctx context.Context, limit int) ([]domain.Dress, error)

	// SlugExists reports whether a dress already uses slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Update modifies an existing dress.
	Update(ctx context.Context, dress *domain.Dress) error

	// Delete removes a dress.
	Delete(ctx context.Context, id int64) error
}

// WishlistRepository defines the interface for wishlist persistence operations.
type WishlistRepository interface {
	// Get returns the user's wishlist with its items, most recently added
	// first. It fails with ErrNotFound when the user has no wishlist yet.
	Get(ctx context.Context, userID string) (*domain.WishlistSnapshot, error)

	// AddItem adds a dress to the user's wishlist, creating the wishlist with
	// newWishlistID when the user has none. It reports whether the dress was
	// added; a dress already on the wishlist is left untouched.
	AddItem(ctx context.Context, newWishlistID, userID string, dressID int64) (bool, error)

	// RemoveItem removes a dress from the user's wishlist.
	RemoveItem(ctx context.Context, userID string, dressID int64) error

	// Clear removes every item from the user's wishlist.
	Clear(ctx context.Context, userID string) error
}

// RentalRepository defines the interface for rental persistence operations.
type RentalRepository interface {
	// CreateBatch inserts all rentals in a single transaction.
	CreateBatch(ctx context.Context, rentals []*domain.Rental) error

	// GetByID retrieves a rental by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Rental, error)

	// ListByUser returns one page of a user's rentals, newest first, and the
	// total count.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rental, int, error)

	// UpdateStatus sets the status of a rental.
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeByUserID revokes all refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error
}

// SubscriptionRepository defines the interface for notify-me subscriptions.
type SubscriptionRepository interface {
	// Upsert stores s, replacing the preferences of an existing subscription
	// with the same email. ID and CreatedAt are set from the stored row.
	Upsert(ctx context.Context, s *domain.Subscription) error

	// ListMatching returns subscriptions interested in category and at least
	// one of sizes.
	ListMatching(ctx context.Context, category string, sizes []string) ([]domain.Subscription, error)
}

// CatalogCache caches catalogue listings keyed by a canonical filter key.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.Dress, bool, error)
	Set(ctx context.Context, key string, dresses []domain.Dress) error
	Invalidate(ctx context.Context) error
}
