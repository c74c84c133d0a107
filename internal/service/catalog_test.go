package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/dressrental/internal/catalog"
	"github.com/utafrali/dressrental/internal/domain"
	"github.com/utafrali/dressrental/internal/event"
	"github.com/utafrali/dressrental/internal/repository"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
	"github.com/utafrali/dressrental/pkg/pagination"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func catalogFixture() []domain.Dress {
	return []domain.Dress{
		{ID: 1, Name: "Aurora Evening Gown", Category: domain.CategoryEvening, Sizes: []string{"14", "16"},
			Colors: []string{"Emerald"}, Price: 8500, Available: true, CreatedAt: base},
		{ID: 5, Name: "Eliza Formal Gown", Category: domain.CategoryEvening, Sizes: []string{"16", "18"},
			Colors: []string{"Wine"}, Price: 9500, Available: false, CreatedAt: base.Add(4 * time.Hour)},
		{ID: 8, Name: "Helena Ballgown", Category: domain.CategoryEvening, Sizes: []string{"16", "22"},
			Colors: []string{"Emerald"}, Price: 11000, Available: true, CreatedAt: base.Add(7 * time.Hour)},
	}
}

func newCatalogService(repo *mockDressRepository, cache repository.CatalogCache) (*CatalogService, *capturePublisher) {
	producer, pub := newTestProducer()
	return NewCatalogService(repo, cache, producer, newTestLogger()), pub
}

func dressIDs(dresses []domain.Dress) []int64 {
	ids := make([]int64, 0, len(dresses))
	for _, d := range dresses {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestListDresses_CacheMissQueriesAndCaches(t *testing.T) {
	repo := new(mockDressRepository)
	cache := new(mockCatalogCache)
	svc, _ := newCatalogService(repo, cache)

	filter := catalog.Filter{Category: domain.CategoryEvening}
	key := filter.CacheKey()

	cache.On("Get", mock.Anything, key).Return(nil, false, nil)
	repo.On("List", mock.Anything, repository.DressFilter{Category: domain.CategoryEvening}).Return(catalogFixture(), nil)
	cache.On("Set", mock.Anything, key, mock.AnythingOfType("[]domain.Dress")).Return(nil)

	page, total, err := svc.ListDresses(context.Background(), filter, pagination.Params{Page: 1, PerPage: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	assert.Equal(t, []int64{8, 1}, dressIDs(page))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)

	cached := cache.Calls[1].Arguments.Get(2).([]domain.Dress)
	assert.Equal(t, []int64{8, 1, 5}, dressIDs(cached))
}

func TestListDresses_CacheHitSkipsRepository(t *testing.T) {
	repo := new(mockDressRepository)
	cache := new(mockCatalogCache)
	svc, _ := newCatalogService(repo, cache)

	cache.On("Get", mock.Anything, "").Return(catalogFixture()[:1], true, nil)

	page, total, err := svc.ListDresses(context.Background(), catalog.Filter{}, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, page, 1)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListDresses_CacheFailureFallsBack(t *testing.T) {
	repo := new(mockDressRepository)
	cache := new(mockCatalogCache)
	svc, _ := newCatalogService(repo, cache)

	cache.On("Get", mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	repo.On("List", mock.Anything, mock.Anything).Return(catalogFixture(), nil)

	page, total, err := svc.ListDresses(context.Background(), catalog.Filter{}, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []int64{8, 1, 5}, dressIDs(page))
}

func TestListDresses_EngineAppliesFilterWithoutCache(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)

	filter := catalog.Filter{Size: "14", Sizes: []string{"22"}, Available: boolPtr(true)}
	repo.On("List", mock.Anything, repository.DressFilter{Sizes: []string{"14", "22"}, Available: boolPtr(true)}).
		Return(catalogFixture(), nil)

	page, total, err := svc.ListDresses(context.Background(), filter, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int64{8, 1}, dressIDs(page))
}

func TestListDresses_PagePastEnd(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)
	repo.On("List", mock.Anything, mock.Anything).Return(catalogFixture(), nil)

	page, total, err := svc.ListDresses(context.Background(), catalog.Filter{}, pagination.Params{Page: 3, PerPage: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestListDresses_InvalidFilter(t *testing.T) {
	svc, _ := newCatalogService(new(mockDressRepository), nil)

	_, _, err := svc.ListDresses(context.Background(), catalog.Filter{Category: "Bridal"}, pagination.DefaultParams())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestListDresses_RepositoryError(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, _, err := svc.ListDresses(context.Background(), catalog.Filter{}, pagination.DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list dresses")
}

func TestFacets(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)
	repo.On("List", mock.Anything, repository.DressFilter{}).Return(catalogFixture(), nil)

	facets, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"14", "16", "18", "22"}, facets.Sizes)
	assert.Equal(t, []string{"Emerald", "Wine"}, facets.Colors)
	assert.Equal(t, []string{domain.CategoryEvening}, facets.Categories)
}

func TestGetDress(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)
	d := catalogFixture()[0]

	repo.On("GetByID", mock.Anything, int64(1)).Return(&d, nil)
	repo.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.ErrNotFound)

	got, err := svc.GetDress(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Aurora Evening Gown", got.Name)

	_, err = svc.GetDress(context.Background(), 99)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestGetDressBySlug_NotFound(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)
	repo.On("GetBySlug", mock.Anything, "nope").Return(nil, apperrors.ErrNotFound)

	_, err := svc.GetDressBySlug(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListFeatured_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, 3},
		{"custom", 5, 5},
		{"capped", 100, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockDressRepository)
			svc, _ := newCatalogService(repo, nil)
			repo.On("ListFeatured", mock.Anything, tt.want).Return([]domain.Dress{}, nil)

			_, err := svc.ListFeatured(context.Background(), tt.limit)
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func validDressInput() DressInput {
	return DressInput{
		Name:      "  Iris Midi Dress ",
		Price:     6500,
		SalePrice: int64Ptr(5500),
		Sizes:     []string{"14", "16"},
		Colors:    []string{"Sage"},
		Category:  domain.CategoryCasual,
		Available: true,
	}
}

func TestCreateDress_UniqueSlug(t *testing.T) {
	repo := new(mockDressRepository)
	cache := new(mockCatalogCache)
	svc, pub := newCatalogService(repo, cache)

	repo.On("SlugExists", mock.Anything, "iris-midi-dress").Return(true, nil)
	repo.On("SlugExists", mock.Anything, "iris-midi-dress-2").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Dress")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Dress).ID = 10 }).
		Return(nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	d, err := svc.CreateDress(context.Background(), validDressInput())
	require.NoError(t, err)

	assert.Equal(t, int64(10), d.ID)
	assert.Equal(t, "Iris Midi Dress", d.Name)
	assert.Equal(t, "iris-midi-dress-2", d.Slug)
	assert.Equal(t, []string{}, d.Images)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Equal(t, []string{event.TopicDressCreated}, pub.published())
	cache.AssertExpectations(t)
}

func TestCreateDress_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DressInput)
	}{
		{"missing name", func(in *DressInput) { in.Name = " " }},
		{"zero price", func(in *DressInput) { in.Price = 0 }},
		{"negative sale price", func(in *DressInput) { in.SalePrice = int64Ptr(-1) }},
		{"unknown category", func(in *DressInput) { in.Category = "Bridal" }},
		{"no sizes", func(in *DressInput) { in.Sizes = nil }},
		{"size out of range", func(in *DressInput) { in.Sizes = []string{"12"} }},
		{"no colors", func(in *DressInput) { in.Colors = nil }},
		{"blank color", func(in *DressInput) { in.Colors = []string{"Sage", " "} }},
		{"name without letters", func(in *DressInput) { in.Name = "!!!" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newCatalogService(new(mockDressRepository), nil)
			in := validDressInput()
			tt.mutate(&in)

			_, err := svc.CreateDress(context.Background(), in)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestCreateDress_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(mockDressRepository)
	producer := event.NewProducer(&capturePublisher{err: errors.New("broker down")}, newTestLogger())
	svc := NewCatalogService(repo, nil, producer, newTestLogger())

	repo.On("SlugExists", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateDress(context.Background(), validDressInput())
	assert.NoError(t, err)
}

func TestUpdateDress_KeepsSlugWhenNameUnchanged(t *testing.T) {
	repo := new(mockDressRepository)
	svc, pub := newCatalogService(repo, nil)

	existing := &domain.Dress{ID: 9, Name: "Iris Midi Dress", Slug: "iris-midi-dress", Category: domain.CategoryCasual}
	repo.On("GetByID", mock.Anything, int64(9)).Return(existing, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	in := validDressInput()
	in.Available = false
	d, err := svc.UpdateDress(context.Background(), 9, in)
	require.NoError(t, err)

	assert.Equal(t, "iris-midi-dress", d.Slug)
	assert.False(t, d.Available)
	assert.Equal(t, int64(5500), *d.SalePrice)
	repo.AssertNotCalled(t, "SlugExists", mock.Anything, mock.Anything)
	assert.Equal(t, []string{event.TopicDressUpdated}, pub.published())
}

func TestUpdateDress_RenameRegeneratesSlug(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)

	existing := &domain.Dress{ID: 9, Name: "Iris", Slug: "iris"}
	repo.On("GetByID", mock.Anything, int64(9)).Return(existing, nil)
	repo.On("SlugExists", mock.Anything, "iris-midi-dress").Return(false, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	d, err := svc.UpdateDress(context.Background(), 9, validDressInput())
	require.NoError(t, err)
	assert.Equal(t, "iris-midi-dress", d.Slug)
}

func TestUpdateDress_NotFound(t *testing.T) {
	repo := new(mockDressRepository)
	svc, _ := newCatalogService(repo, nil)
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateDress(context.Background(), 9, validDressInput())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteDress(t *testing.T) {
	repo := new(mockDressRepository)
	cache := new(mockCatalogCache)
	svc, pub := newCatalogService(repo, cache)

	repo.On("Delete", mock.Anything, int64(3)).Return(nil).Once()
	repo.On("Delete", mock.Anything, int64(4)).Return(apperrors.NotFound("dress", "4"))
	cache.On("Invalidate", mock.Anything).Return(errors.New("redis down"))

	require.NoError(t, svc.DeleteDress(context.Background(), 3))
	assert.Equal(t, []string{event.TopicDressDeleted}, pub.published())

	err := svc.DeleteDress(context.Background(), 4)
	assert.True(t, apperrors.IsNotFound(err))
}
