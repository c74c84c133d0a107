package http

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
)

// In-memory repositories that behave like the postgres ones for the cases
// the handlers care about.

type fakeDressRepo struct {
	mu      sync.Mutex
	nextID  int64
	dresses map[int64]domain.Dress
}

func newFakeDressRepo(seed ...domain.Dress) *fakeDressRepo {
	r := &fakeDressRepo{dresses: make(map[int64]domain.Dress)}
	for _, d := range seed {
		r.dresses[d.ID] = d
		r.nextID = max(r.nextID, d.ID)
	}
	return r
}

func (r *fakeDressRepo) Create(_ context.Context, d *domain.Dress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	r.dresses[d.ID] = *d
	return nil
}

func (r *fakeDressRepo) GetByID(_ context.Context, id int64) (*domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dresses[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

func (r *fakeDressRepo) GetBySlug(_ context.Context, slug string) (*domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dresses {
		if d.Slug == slug {
			return &d, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeDressRepo) List(_ context.Context, f repository.DressFilter) ([]domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Dress{}
	for _, d := range r.dresses {
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeDressRepo) ListFeatured(_ context.Context, limit int) ([]domain.Dress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Dress{}
	for _, d := range r.dresses {
		if d.Featured && d.Available {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeDressRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dresses {
		if d.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDressRepo) Update(_ context.Context, d *domain.Dress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dresses[d.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.dresses[d.ID] = *d
	return nil
}

func (r *fakeDressRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dresses[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.dresses, id)
	return nil
}

type fakeWishlistRepo struct {
	mu        sync.Mutex
	dresses   *fakeDressRepo
	wishlists map[string]*domain.WishlistSnapshot
}

func newFakeWishlistRepo(dresses *fakeDressRepo) *fakeWishlistRepo {
	return &fakeWishlistRepo{dresses: dresses, wishlists: make(map[string]*domain.WishlistSnapshot)}
}

func (r *fakeWishlistRepo) Get(_ context.Context, userID string) (*domain.WishlistSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishlists[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	snap := w.Clone()
	return &snap, nil
}

func (r *fakeWishlistRepo) AddItem(ctx context.Context, newID, userID string, dressID int64) (bool, error) {
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

func (r *fakeWishlistRepo) RemoveItem(_ context.Context, userID string, dressID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wishlists[userID]
	if !ok || !w.Contains(dressID) {
		return apperrors.ErrNotFound
	}
	w.Items = slices.DeleteFunc(w.Items, func(it domain.WishlistItem) bool { return it.Dress.ID == dressID })
	return nil
}

func (r *fakeWishlistRepo) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wishlists[userID]; ok {
		w.Items = []domain.WishlistItem{}
	}
	return nil
}

type fakeRentalRepo struct {
	mu      sync.Mutex
	rentals []domain.Rental
}

func (r *fakeRentalRepo) CreateBatch(_ context.Context, rentals []*domain.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rental := range rentals {
		r.rentals = append(r.rentals, *rental)
	}
	return nil
}

func (r *fakeRentalRepo) GetByID(_ context.Context, id string) (*domain.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rental := range r.rentals {
		if rental.ID == id {
			return &rental, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRentalRepo) ListByUser(_ context.Context, userID string, page, perPage int) ([]domain.Rental, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []domain.Rental
	for _, rental := range r.rentals {
		if rental.UserID == userID {
			mine = append(mine, rental)
		}
	}
	start := min((page-1)*perPage, len(mine))
	end := min(start+perPage, len(mine))
	return mine[start:end], len(mine), nil
}

func (r *fakeRentalRepo) UpdateStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rentals {
		if r.rentals[i].ID == id {
			r.rentals[i].Status = status
			r.rentals[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
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

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.users[u.ID] = *u
	return nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = &domain.RefreshToken{
		ID:        tokenHash,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (r *fakeRefreshTokenRepo) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.tokens[tokenHash]; ok {
		now := time.Now().UTC()
		rt.RevokedAt = &now
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, rt := range r.tokens {
		if rt.UserID == userID {
			rt.RevokedAt = &now
		}
	}
	return nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]domain.Subscription
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs == nil {
		r.subs = make(map[string]domain.Subscription)
	}
	if existing, ok := r.subs[s.Email]; ok {
		s.ID, s.CreatedAt = existing.ID, existing.CreatedAt
	}
	r.subs[s.Email] = *s
	return nil
}

func (r *fakeSubscriptionRepo) ListMatching(context.Context, string, []string) ([]domain.Subscription, error) {
	return nil, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
