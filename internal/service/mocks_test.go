package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
)

// --- Mock Dress Repository ---

type mockDressRepository struct {
	mock.Mock
}

func (m *mockDressRepository) Create(ctx context.Context, dress *domain.Dress) error {
	args := m.Called(ctx, dress)
	return args.Error(0)
}

func (m *mockDressRepository) GetByID(ctx context.Context, id int64) (*domain.Dress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dress), args.Error(1)
}

func (m *mockDressRepository) GetBySlug(ctx context.Context, slug string) (*domain.Dress, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dress), args.Error(1)
}

func (m *mockDressRepository) List(ctx context.Context, filter repository.DressFilter) ([]domain.Dress, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dress), args.Error(1)
}

func (m *mockDressRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Dress, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dress), args.Error(1)
}

func (m *mockDressRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockDressRepository) Update(ctx context.Context, dress *domain.Dress) error {
	args := m.Called(ctx, dress)
	return args.Error(0)
}

func (m *mockDressRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Catalog Cache ---

type mockCatalogCache struct {
	mock.Mock
}

func (m *mockCatalogCache) Get(ctx context.Context, key string) ([]domain.Dress, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.Dress), args.Bool(1), args.Error(2)
}

func (m *mockCatalogCache) Set(ctx context.Context, key string, dresses []domain.Dress) error {
	args := m.Called(ctx, key, dresses)
	return args.Error(0)
}

func (m *mockCatalogCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock Wishlist Repository ---

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) Get(ctx context.Context, userID string) (*domain.WishlistSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistSnapshot), args.Error(1)
}

func (m *mockWishlistRepository) AddItem(ctx context.Context, newWishlistID, userID string, dressID int64) (bool, error) {
	args := m.Called(ctx, newWishlistID, userID, dressID)
	return args.Bool(0), args.Error(1)
}

func (m *mockWishlistRepository) RemoveItem(ctx context.Context, userID string, dressID int64) error {
	args := m.Called(ctx, userID, dressID)
	return args.Error(0)
}

func (m *mockWishlistRepository) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Rental Repository ---

type mockRentalRepository struct {
	mock.Mock
}

func (m *mockRentalRepository) CreateBatch(ctx context.Context, rentals []*domain.Rental) error {
	args := m.Called(ctx, rentals)
	return args.Error(0)
}

func (m *mockRentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *mockRentalRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Rental, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Rental), args.Int(1), args.Error(2)
}

func (m *mockRentalRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Subscription Repository ---

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) ListMatching(ctx context.Context, category string, sizes []string) ([]domain.Subscription, error) {
	args := m.Called(ctx, category, sizes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// capturePublisher records published events in memory.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func newTestProducer() (*event.Producer, *capturePublisher) {
	pub := &capturePublisher{}
	return event.NewProducer(pub, newTestLogger()), pub
}

func int64Ptr(n int64) *int64 { return &n }
func boolPtr(b bool) *bool    { return &b }
