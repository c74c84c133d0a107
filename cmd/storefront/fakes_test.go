package main

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
)

// Just enough in-memory persistence to serve a shopper session end to end.

type memDresses struct {
	mu      sync.Mutex
	dresses []domain.Dress
}

func (r *memDresses) Create(_ context.Context, d *domain.Dress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = int64(len(r.dresses) + 1)
	r.dresses = append(r.dresses, *d)
	return nil
}

func (r *memDresses) GetByID(_ context.Context, id int64) (*domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dresses {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memDresses) GetBySlug(_ context.Context, slug string) (*domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dresses {
		if d.Slug == slug {
			return &d, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memDresses) List(context.Context, repository.DressFilter) ([]domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.dresses), nil
}

func (r *memDresses) ListFeatured(context.Context, int) ([]domain.Dress, error) {
	return []domain.Dress{}, nil
}

func (r *memDresses) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (r *memDresses) Update(context.Context, *domain.Dress) error { return nil }

func (r *memDresses) Delete(context.Context, int64) error { return nil }

type memWishlists struct {
	mu        sync.Mutex
	dresses   *memDresses
	wishlists map[string]*domain.WishlistSnapshot
}

func (r *memWishlists) Get(_ context.Context, userID string) (*domain.WishlistSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishlists[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	snap := w.Clone()
	return &snap, nil
}

func (r *memWishlists) AddItem(ctx context.Context, newID, userID string, dressID int64) (bool, error) {
	d, err := r.dresses.GetByID(ctx, dressID)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishlists[userID]
	if !ok {
		id := newID
		w = &domain.WishlistSnapshot{ID: &id, Name: domain.DefaultWishlistName, Items: []domain.WishlistItem{}}
		r.wishlists[userID] = w
	}
	if w.Contains(dressID) {
		return false, nil
	}
	w.Items = append([]domain.WishlistItem{{Dress: *d, AddedAt: time.Now().UTC()}}, w.Items...)
	return true, nil
}

func (r *memWishlists) RemoveItem(_ context.Context, userID string, dressID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishlists[userID]
	if !ok || !w.Contains(dressID) {
		return apperrors.ErrNotFound
	}
	w.Items = slices.DeleteFunc(w.Items, func(it domain.WishlistItem) bool { return it.Dress.ID == dressID })
	return nil
}

func (r *memWishlists) Clear(context.Context, string) error { return nil }

type memRentals struct {
	mu      sync.Mutex
	rentals []domain.Rental
}

func (r *memRentals) CreateBatch(_ context.Context, rentals []*domain.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rental := range rentals {
		r.rentals = append(r.rentals, *rental)
	}
	return nil
}

func (r *memRentals) GetByID(context.Context, string) (*domain.Rental, error) {
	return nil, apperrors.ErrNotFound
}

func (r *memRentals) ListByUser(context.Context, string, int, int) ([]domain.Rental, int, error) {
	return []domain.Rental{}, 0, nil
}

func (r *memRentals) UpdateStatus(context.Context, string, string, time.Time) error { return nil }

func (r *memRentals) all() []domain.Rental {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rentals)
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperrors.ErrAlreadyExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

type memRefreshTokens struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
}

func (r *memRefreshTokens) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = domain.RefreshToken{
		ID:        tokenHash,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (r *memRefreshTokens) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rt, nil
}

func (r *memRefreshTokens) Revoke(context.Context, string) error { return nil }

func (r *memRefreshTokens) RevokeByUserID(context.Context, string) error { return nil }

type memSubscriptions struct{}

func (memSubscriptions) Upsert(context.Context, *domain.Subscription) error { return nil }

func (memSubscriptions) ListMatching(context.Context, string, []string) ([]domain.Subscription, error) {
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
