package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/dressrental/internal/auth"
	"github.com/utafrali/dressrental/internal/event"
	handler "github.com/utafrali/dressrental/internal/handler/http"
	"github.com/utafrali/dressrental/internal/repository"
	"github.com/utafrali/dressrental/internal/repository/postgres"
	"github.com/utafrali/dressrental/internal/service"
	"github.com/utafrali/dressrental/pkg/database"
	"github.com/utafrali/dressrental/pkg/health"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
)

// Repositories groups the persistence adapters the services depend on.
type Repositories struct {
	Users         repository.UserRepository
	RefreshTokens repository.RefreshTokenRepository
	Dresses       repository.DressRepository
	Wishlists     repository.WishlistRepository
	Rentals       repository.RentalRepository
	Subscriptions repository.SubscriptionRepository
}

// NewPostgresRepositories returns PostgreSQL-backed repositories sharing db.
func NewPostgresRepositories(db database.DBTX) Repositories {
	return Repositories{
		Users:         postgres.NewUserRepository(db),
		RefreshTokens: postgres.NewRefreshTokenRepository(db),
		Dresses:       postgres.NewDressRepository(db),
		Wishlists:     postgres.NewWishlistRepository(db),
		Rentals:       postgres.NewRentalRepository(db),
		Subscriptions: postgres.NewSubscriptionRepository(db),
	}
}

// NewServices builds the application services. cache may be nil.
func NewServices(
	repos Repositories,
	cache repository.CatalogCache,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) handler.Services {
	return handler.Services{
		Users:         service.NewUserService(repos.Users, repos.RefreshTokens, jwtManager, producer, logger),
		Catalog:       service.NewCatalogService(repos.Dresses, cache, producer, logger),
		Wishlists:     service.NewWishlistService(repos.Wishlists, repos.Dresses, producer, logger),
		Rentals:       service.NewRentalService(repos.Rentals, repos.Dresses, producer, logger),
		Subscriptions: service.NewSubscriptionService(repos.Subscriptions, producer, logger),
	}
}

// newHealthHandler registers the readiness checks. PostgreSQL and Redis are
// critical; Kafka only degrades the service because events are best effort.
func newHealthHandler(pgPing health.Checker, rdb *redis.Client, brokers []string) *health.Handler {
	h := health.NewHandler()
	h.RegisterCritical("postgres", pgPing)
	h.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	h.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, brokers)
	})
	return h
}
