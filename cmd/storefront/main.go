// Package main runs a scripted shopper session against a running dress rental
// API: sign in, browse the catalogue with a filter, toggle a wishlist heart and
// check out a one-line cart. It exercises the same client-side packages a
// storefront UI is built on and is used as a post-deploy smoke test.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/dressrental/internal/cart"
	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/storefront"
	"github.com/utafrali/dressrental/internal/wishlist"
	"github.com/utafrali/dressrental/pkg/logger"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log := logger.New("dressrental-storefront", getEnv("LOG_LEVEL", "info"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := storefront.NewDefault(getEnv("API_BASE_URL", "http://localhost:8080"), storefront.NewSession(), log)
	err := shop(ctx, client, shopper{
		email:    getEnv("SHOPPER_EMAIL", "demo@dressrental.local"),
		password: getEnv("SHOPPER_PASSWORD", "DemoPass123!"),
		size:     getEnv("SHOPPER_SIZE", "18"),
	}, log)
	if err != nil {
		log.Error("storefront session failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("storefront session complete")
}

type shopper struct {
	email    string
	password string
	size     string
}

func shop(ctx context.Context, client *storefront.Client, who shopper, log *slog.Logger) error {
	user, err := client.Login(ctx, who.email, who.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	log.Info("signed in", slog.String("user_id", user.ID))

	// Browse.
	store := catalog.NewStore(client)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	available := true
	visible, err := store.SetFilter(catalog.Filter{Size: who.size, Available: &available})
	if err != nil {
		return fmt.Errorf("apply filter: %w", err)
	}
	log.Info("catalogue filtered",
		slog.Int("total", len(store.Dresses())),
		slog.Int("visible", len(visible)),
		slog.String("size", who.size),
	)
	if len(visible) == 0 {
		return errors.New("no available dress in the requested size")
	}
	dress := visible[0]

	// Wishlist heart.
	var notices []wishlist.Notice
	vm := wishlist.New(client, client.Session(),
		wishlist.WithLogger(log),
		wishlist.WithNotifier(func(n wishlist.Notice) { notices = append(notices, n) }),
	)
	if err := vm.Refresh(ctx); err != nil {
		return fmt.Errorf("load wishlist: %w", err)
	}
	before := vm.EffectiveMembership(dress.ID)
	if err := vm.Toggle(ctx, dress.ID); err != nil {
		return fmt.Errorf("toggle wishlist: %w", err)
	}
	vm.Wait()
	if len(notices) > 0 {
		return fmt.Errorf("wishlist update failed: %s", notices[0].Message)
	}
	log.Info("wishlist toggled",
		slog.Int64("dress_id", dress.ID),
		slog.Bool("was_saved", before),
		slog.Bool("saved", vm.EffectiveMembership(dress.ID)),
	)

	// Cart and checkout.
	basket := cart.New()
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 7)
	line, err := basket.Add(dress, dress.Colors[0], who.size, start, start.AddDate(0, 0, 3))
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	log.Info("cart ready",
		slog.String("dress", dress.Name),
		slog.Int("days", line.Days),
		slog.String("total", formatCents(basket.Total())),
	)

	rentals, err := basket.Checkout(ctx, client)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	for _, r := range rentals {
		log.Info("rental created",
			slog.String("rental_id", r.ID),
			slog.String("status", r.Status),
			slog.String("total", formatCents(r.TotalPrice)),
		)
	}
	if basket.Len() != 0 {
		return fmt.Errorf("cart still holds %d line(s) after checkout", basket.Len())
	}
	return nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
