// Package cart is the client-side rental cart. It is kept in memory for the
// session and never persisted by the server; checkout turns its lines into
// rentals and empties it.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/dressrental/internal/domain"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/validator"
)

// Checkouter submits cart lines as rentals.
type Checkouter interface {
	Checkout(ctx context.Context, lines []domain.CartLineItem) ([]domain.Rental, error)
}

// lineForm mirrors the add-to-cart form so that bad input is reported per field.
type lineForm struct {
	Color     string    `json:"color" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
}

type Store struct {
	mu    sync.Mutex
	items []domain.CartLineItem
}

func New() *Store {
	return &Store{}
}

// Add prices a new line for dress d. The color and size must be offered by
// the dress and the end date must not precede the start date.
func (s *Store) Add(d domain.Dress, color, size string, start, end time.Time) (domain.CartLineItem, error) {
	if err := validator.Validate(lineForm{Color: color, Size: size, StartDate: start, EndDate: end}); err != nil {
		return domain.CartLineItem{}, err
	}
	if !d.HasColor(color) {
		return domain.CartLineItem{}, apperrors.InvalidInput(fmt.Sprintf("%s is not available in %s", d.Name, color))
	}
	if !d.HasSize(size) {
		return domain.CartLineItem{}, apperrors.InvalidInput(fmt.Sprintf("%s is not available in size %s", d.Name, size))
	}

	line := domain.NewCartLineItem(uuid.NewString(), d, color, size, start, end)

	s.mu.Lock()
	s.items = append(s.items, line)
	s.mu.Unlock()
	return line, nil
}

// Remove deletes the line with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("cart item", id)
}

// UpdateDates moves a line to a new range and reprices it. A start after the
// end pushes the end to the following day.
func (s *Store) UpdateDates(id string, start, end time.Time) (domain.CartLineItem, error) {
	start, end = domain.AdjustRange(start, end)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items[i] = domain.NewCartLineItem(it.ID, it.Dress, it.Color, it.Size, start, end)
			return s.items[i], nil
		}
	}
	return domain.CartLineItem{}, apperrors.NotFound("cart item", id)
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLineItem{}, s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Total sums the line totals, in cents.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, it := range s.items {
		total += it.TotalPrice
	}
	return total
}

// Checkout submits every line and clears the cart once the server accepted
// them. On error the cart is left untouched.
func (s *Store) Checkout(ctx context.Context, c Checkouter) ([]domain.Rental, error) {
	lines := s.Items()
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	rentals, err := c.Checkout(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	s.mu.Lock()
	s.items = removeLines(s.items, lines)
	s.mu.Unlock()
	return rentals, nil
}

// removeLines drops submitted lines, keeping any added while checkout ran.
func removeLines(items, submitted []domain.CartLineItem) []domain.CartLineItem {
	done := make(map[string]struct{}, len(submitted))
	for _, l := range submitted {
		done[l.ID] = struct{}{}
	}
	var kept []domain.CartLineItem
	for _, it := range items {
		if _, ok := done[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	return kept
}
