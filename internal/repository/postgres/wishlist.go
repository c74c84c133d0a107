package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/pkg/database"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Get returns the user's wishlist with its dresses, most recently added first.
func (r *WishlistRepository) Get(ctx context.Context, userID string) (snap *domain.WishlistSnapshot, err error) {
	ctx, end := database.TraceQuery(ctx, "GetWishlist", "wishlists+wishlist_items")
	defer func() { end(err) }()

	var (
		id   string
		name string
	)
	err = r.db.QueryRow(ctx, `SELECT id, name FROM wishlists WHERE user_id = $1`, userID).Scan(&id, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	query := `
		SELECT d.id, d.name, d.slug, d.description, d.price, d.sale_price, d.sizes, d.colors, d.images,
		       d.category, d.featured, d.available, d.created_at, d.updated_at, wi.added_at
		FROM wishlist_items wi
		JOIN dresses d ON d.id = wi.dress_id
		WHERE wi.wishlist_id = $1
		ORDER BY wi.added_at DESC, d.id DESC`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		d := &item.Dress
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Slug,
			&d.Description,
			&d.Price,
			&d.SalePrice,
			&d.Sizes,
			&d.Colors,
			&d.Images,
			&d.Category,
			&d.Featured,
			&d.Available,
			&d.CreatedAt,
			&d.UpdatedAt,
			&item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist items: %w", err)
	}

	return &domain.WishlistSnapshot{ID: &id, Name: name, Items: items}, nil
}

// AddItem adds a dress to the user's wishlist, creating the wishlist on first
// use. It reports false when the dress was already on the wishlist.
func (r *WishlistRepository) AddItem(ctx context.Context, newWishlistID, userID string, dressID int64) (bool, error) {
	query := `
		WITH w AS (
			INSERT INTO wishlists (id, user_id, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING id
		)
		INSERT INTO wishlist_items (wishlist_id, dress_id)
		SELECT id, $4 FROM w
		ON CONFLICT (wishlist_id, dress_id) DO NOTHING`

	ct, err := r.db.Exec(ctx, query, newWishlistID, userID, domain.DefaultWishlistName, dressID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperrors.NotFound("dress", strconv.FormatInt(dressID, 10))
		}
		return false, fmt.Errorf("add wishlist item: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// RemoveItem removes a dress from the user's wishlist.
func (r *WishlistRepository) RemoveItem(ctx context.Context, userID string, dressID int64) error {
	query := `
		DELETE FROM wishlist_items wi
		USING wishlists w
		WHERE wi.wishlist_id = w.id AND w.user_id = $1 AND wi.dress_id = $2`

	ct, err := r.db.Exec(ctx, query, userID, dressID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", strconv.FormatInt(dressID, 10))
	}

	return nil
}

// Clear removes every item from the user's wishlist. The wishlist itself is kept.
func (r *WishlistRepository) Clear(ctx context.Context, userID string) error {
	query := `
		DELETE FROM wishlist_items wi
		USING wishlists w
		WHERE wi.wishlist_id = w.id AND w.user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}

	return nil
}
