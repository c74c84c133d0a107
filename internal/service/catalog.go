package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/pagination"
	"github.com/utafrali/dressrental/pkg/slug"
)

const (
	defaultFeaturedLimit = 3
	maxFeaturedLimit     = 12
	maxSlugAttempts      = 50
)

// CatalogService implements the dress catalogue: listings, detail pages and
// admin maintenance.
type CatalogService struct {
	repo     repository.DressRepository
	cache    repository.CatalogCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(
	repo repository.DressRepository,
	cache repository.CatalogCache,
	producer *event.Producer,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// DressInput holds the editable fields of a dress. Updates replace every field.
type DressInput struct {
	Name        string
	Description string
	Price       int64
	SalePrice   *int64
	Sizes       []string
	Colors      []string
	Images      []string
	Category    string
	Featured    bool
	Available   bool
}

// ListDresses returns one page of the dresses matching filter in listing
// order, and the number of matching dresses.
func (s *CatalogService) ListDresses(ctx context.Context, filter catalog.Filter, page pagination.Params) ([]domain.Dress, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	all, err := s.listAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return pagination.Window(all, page), len(all), nil
}

// Facets returns the sizes, colors and categories present in the catalogue.
func (s *CatalogService) Facets(ctx context.Context) (catalog.Facets, error) {
	all, err := s.listAll(ctx, catalog.Filter{})
	if err != nil {
		return catalog.Facets{}, err
	}
	return catalog.BuildFacets(all), nil
}

func (s *CatalogService) listAll(ctx context.Context, filter catalog.Filter) ([]domain.Dress, error) {
	key := filter.CacheKey()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "catalog cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		} else if ok {
			return cached, nil
		}
	}

	candidates, err := s.repo.List(ctx, repository.DressFilterFrom(filter))
	if err != nil {
		return nil, fmt.Errorf("list dresses: %w", err)
	}
	result := catalog.Query(candidates, filter)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.WarnContext(ctx, "catalog cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}

// GetDress retrieves a dress by ID.
func (s *CatalogService) GetDress(ctx context.Context, id int64) (*domain.Dress, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("dress", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("get dress: %w", err)
	}
	return d, nil
}

// GetDressBySlug retrieves a dress by its slug.
func (s *CatalogService) GetDressBySlug(ctx context.Context, dressSlug string) (*domain.Dress, error) {
	d, err := s.repo.GetBySlug(ctx, dressSlug)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("dress", dressSlug)
		}
		return nil, fmt.Errorf("get dress by slug: %w", err)
	}
	return d, nil
}

// ListFeatured returns available featured dresses for the home page. limit
// falls back to 3 when unset and is capped at 12.
func (s *CatalogService) ListFeatured(ctx context.Context, limit int) ([]domain.Dress, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	if limit > maxFeaturedLimit {
		limit = maxFeaturedLimit
	}

	dresses, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured dresses: %w", err)
	}
	return dresses, nil
}

// CreateDress adds a dress to the catalogue under a unique slug derived from its name.
func (s *CatalogService) CreateDress(ctx context.Context, input DressInput) (*domain.Dress, error) {
	input = normalizeDressInput(input)
	if err := validateDressInput(input); err != nil {
		return nil, err
	}

	dressSlug, err := s.uniqueSlug(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := &domain.Dress{
		Slug:      dressSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyDressInput(d, input)

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create dress: %w", err)
	}

	s.invalidateCache(ctx)

	if err := s.producer.PublishDressCreated(ctx, d); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish dress.created event",
			slog.Int64("dress_id", d.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "dress created",
		slog.Int64("dress_id", d.ID),
		slog.String("slug", d.Slug),
	)

	return d, nil
}

// UpdateDress replaces the editable fields of a dress. The slug changes only
// when the name does.
func (s *CatalogService) UpdateDress(ctx context.Context, id int64, input DressInput) (*domain.Dress, error) {
	input = normalizeDressInput(input)
	if err := validateDressInput(input); err != nil {
		return nil, err
	}

	d, err := s.GetDress(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != d.Name {
		dressSlug, err := s.uniqueSlug(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		d.Slug = dressSlug
	}
	applyDressInput(d, input)

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update dress: %w", err)
	}

	s.invalidateCache(ctx)

	if err := s.producer.PublishDressUpdated(ctx, d); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish dress.updated event",
			slog.Int64("dress_id", d.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "dress updated", slog.Int64("dress_id", d.ID))

	return d, nil
}

// DeleteDress removes a dress from the catalogue.
func (s *CatalogService) DeleteDress(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFound("dress", fmt.Sprint(id))
		}
		return fmt.Errorf("delete dress: %w", err)
	}

	s.invalidateCache(ctx)

	if err := s.producer.PublishDressDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish dress.deleted event",
			slog.Int64("dress_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "dress deleted", slog.Int64("dress_id", id))

	return nil
}

func (s *CatalogService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Generate(name)
	if base == "" {
		return "", apperrors.InvalidInput("name must contain letters or digits")
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(base, n)
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", apperrors.AlreadyExists("dress", "slug", base)
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "catalog cache invalidation failed", slog.String("error", err.Error()))
	}
}

func normalizeDressInput(in DressInput) DressInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Images == nil {
		in.Images = []string{}
	}
	return in
}

func validateDressInput(in DressInput) error {
	switch {
	case in.Name == "":
		return apperrors.InvalidInput("name is required")
	case in.Price <= 0:
		return apperrors.InvalidInput("price must be positive")
	case in.SalePrice != nil && *in.SalePrice <= 0:
		return apperrors.InvalidInput("sale price must be positive")
	case !domain.IsValidCategory(in.Category):
		return apperrors.InvalidInput(fmt.Sprintf("unknown category %q", in.Category))
	case len(in.Sizes) == 0:
		return apperrors.InvalidInput("at least one size is required")
	case len(in.Colors) == 0:
		return apperrors.InvalidInput("at least one color is required")
	}

	for _, size := range in.Sizes {
		if !domain.IsValidSize(size) {
			return apperrors.InvalidInput(fmt.Sprintf("unknown size %q", size))
		}
	}
	for _, color := range in.Colors {
		if strings.TrimSpace(color) == "" {
			return apperrors.InvalidInput("colors must not contain blank values")
		}
	}
	return nil
}

func applyDressInput(d *domain.Dress, in DressInput) {
	d.Name = in.Name
	d.Description = in.Description
	d.Price = in.Price
	d.SalePrice = in.SalePrice
	d.Sizes = in.Sizes
	d.Colors = in.Colors
	d.Images = in.Images
	d.Category = in.Category
	d.Featured = in.Featured
	d.Available = in.Available
}
