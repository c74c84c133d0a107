package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/utafrali/dressrental/internal/domain"
)

// Fetcher loads dresses from the storefront API.
type Fetcher interface {
	FetchDresses(ctx context.Context, f Filter) ([]domain.Dress, error)
}

// Store holds the catalogue fetched from the server together with the filter
// the shopper has selected. Changing the filter recomputes the visible list
// locally with the same engine the server uses for listings.
type Store struct {
	fetcher Fetcher

	mu      sync.RWMutex
	all     []domain.Dress
	filter  Filter
	visible []domain.Dress
	facets  Facets
}

func NewStore(fetcher Fetcher) *Store {
	return &Store{fetcher: fetcher}
}

// Load fetches the whole catalogue and reapplies the current filter.
func (s *Store) Load(ctx context.Context) error {
	dresses, err := s.fetcher.FetchDresses(ctx, Filter{})
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = dresses
	s.facets = BuildFacets(dresses)
	s.visible = Query(dresses, s.filter)
	return nil
}

// SetFilter replaces the current filter and returns the resulting listing.
// An invalid filter leaves the store unchanged.
func (s *Store) SetFilter(f Filter) ([]domain.Dress, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.visible = Query(s.all, f)
	return append([]domain.Dress(nil), s.visible...), nil
}

func (s *Store) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Dresses returns the current listing.
func (s *Store) Dresses() []domain.Dress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Dress(nil), s.visible...)
}

// Facets describes every loaded dress, regardless of the active filter.
func (s *Store) Facets() Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facets
}

// Lookup finds a loaded dress by id.
func (s *Store) Lookup(id int64) (domain.Dress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.all {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Dress{}, false
}
