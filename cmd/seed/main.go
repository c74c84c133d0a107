// Package main populates the dress rental database with the launch catalogue,
// an administrator and a demo customer. It runs against the same configuration as
// the API server and is safe to run repeatedly: dresses are only inserted
// into an empty catalogue and existing accounts are left as they are.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/dressrental/internal/app"
	"github.com/utafrali/dressrental/internal/auth"
	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/config"
	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	"github.com/utafrali/dressrental/internal/service"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/logger"
	"github.com/utafrali/dressrental/pkg/pagination"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("dressrental-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	infra, err := app.OpenInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := infra.Close(); err != nil {
			log.Warn("close connections", slog.String("error", err.Error()))
		}
	}()

	repos := app.NewPostgresRepositories(infra.Pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	// Cached listings in the running API expire after CATALOG_CACHE_TTL.
	svc := app.NewServices(repos, nil, jwtManager, event.NewProducer(infra.Producer, log), log)

	if err := seedDresses(ctx, svc.Catalog, log); err != nil {
		return err
	}
	if err := seedUser(ctx, svc.Users, repos.Users, seedAccount{
		email:    getEnv("SEED_ADMIN_EMAIL", "admin@dressrental.local"),
		password: getEnv("SEED_ADMIN_PASSWORD", "ChangeMe123!"),
		name:     "Store Admin",
		role:     domain.RoleAdmin,
	}, log); err != nil {
		return err
	}
	return seedUser(ctx, svc.Users, repos.Users, seedAccount{
		email:    getEnv("SEED_DEMO_EMAIL", "demo@dressrental.local"),
		password: getEnv("SEED_DEMO_PASSWORD", "DemoPass123!"),
		name:     "Demo Customer",
		role:     domain.RoleCustomer,
	}, log)
}

// --------------------------------------------------------------------------
// Dresses
// --------------------------------------------------------------------------

func seedDresses(ctx context.Context, catalogService *service.CatalogService, log *slog.Logger) error {
	_, total, err := catalogService.ListDresses(ctx, catalog.Filter{}, pagination.Params{Page: 1, PerPage: 1})
	if err != nil {
		return fmt.Errorf("count dresses: %w", err)
	}
	if total > 0 {
		log.Info("catalogue already seeded, skipping dresses", slog.Int("dresses", total))
		return nil
	}

	for _, input := range launchCatalogue() {
		d, err := catalogService.CreateDress(ctx, input)
		if err != nil {
			return fmt.Errorf("create dress %q: %w", input.Name, err)
		}
		log.Info("dress created", slog.Int64("id", d.ID), slog.String("slug", d.Slug))
	}
	return nil
}

// --------------------------------------------------------------------------
// Accounts
// --------------------------------------------------------------------------

type seedAccount struct {
	email    string
	password string
	name     string
	role     string
}

// seedUser registers acc through the user service, then promotes it when it
// needs a role other than customer. Existing accounts are left untouched.
func seedUser(
	ctx context.Context,
	users *service.UserService,
	repo repository.UserRepository,
	acc seedAccount,
	log *slog.Logger,
) error {
	user, _, err := users.Register(ctx, service.RegisterInput{
		Email:    acc.email,
		Password: acc.password,
		Name:     acc.name,
	})
	switch {
	case apperrors.IsAlreadyExists(err):
		log.Info("account already exists", slog.String("email", acc.email))
		return nil
	case err != nil:
		return fmt.Errorf("register %s: %w", acc.email, err)
	}

	if user.Role != acc.role {
		user.Role = acc.role
		user.UpdatedAt = time.Now().UTC()
		if err := repo.Update(ctx, user); err != nil {
			return fmt.Errorf("set role of %s: %w", acc.email, err)
		}
	}
	log.Info("account created", slog.String("email", user.Email), slog.String("role", user.Role))
	return nil
}
