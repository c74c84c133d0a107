package domain

import (
	"time"
)

// DefaultWishlistName is given to the wishlist created on a user's first add.
const DefaultWishlistName = "My Wishlist"

// WishlistItem is a dress saved to a wishlist.
type WishlistItem struct {
	Dress   Dress     `json:"dress"`
	AddedAt time.Time `json:"added_at"`
}

// WishlistSnapshot is the server-confirmed wishlist of one user. ID is nil
// until the first item is added. Items are ordered newest first.
type WishlistSnapshot struct {
	ID    *string        `json:"id"`
	Name  string         `json:"name"`
	Items []WishlistItem `json:"items"`
}

// EmptyWishlist is returned for users who never added anything.
func EmptyWishlist() WishlistSnapshot {
	return WishlistSnapshot{Name: DefaultWishlistName, Items: []WishlistItem{}}
}

func (w WishlistSnapshot) Contains(dressID int64) bool {
	for _, it := range w.Items {
		if it.Dress.ID == dressID {
			return true
		}
	}
	return false
}

// DressIDs lists item dress IDs in snapshot order.
func (w WishlistSnapshot) DressIDs() []int64 {
	ids := make([]int64, 0, len(w.Items))
	for _, it := range w.Items {
		ids = append(ids, it.Dress.ID)
	}
	return ids
}

// Clone returns a copy whose Items slice can be modified independently.
func (w WishlistSnapshot) Clone() WishlistSnapshot {
	c := w
	if w.ID != nil {
		id := *w.ID
		c.ID = &id
	}
	c.Items = append([]WishlistItem(nil), w.Items...)
	return c
}
