package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"golang.org/x/exp/slices"
)

// JSONCache is the part of the redis cache the catalog needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, expiration time.Duration) error
}

const catalogTTL = 10 * time.Minute

// CatalogService serves the provider and package listings. Reads go through
// the cache; purchase validation always reads the database.
type CatalogService struct {
	db     repository.Database
	cache  JSONCache
	logger *slog.Logger
}

func NewCatalogService(db repository.Database, cache JSONCache, logger *slog.Logger) *CatalogService {
	return &CatalogService{db: db, cache: cache, logger: logger}
}

func (s *CatalogService) Providers(ctx context.Context, service models.ServiceType) ([]models.Provider, error) {
	if !service.Valid() {
		return nil, ErrInvalidService
	}

	key := "catalog:providers:" + string(service)

	var providers []models.Provider
	if s.cached(ctx, key, &providers) {
		return providers, nil
	}

	providers, err := s.db.Catalog().ListProviders(ctx, service)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(providers, func(a, b models.Provider) int {
		return strings.Compare(a.Name, b.Name)
	})

	s.store(ctx, key, providers)
	return providers, nil
}

func (s *CatalogService) Packages(ctx context.Context, providerID string) ([]models.ServicePackage, error) {
	_, found, err := s.db.Catalog().GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidProvider
	}

	key := "catalog:packages:" + providerID

	var packages []models.ServicePackage
	if s.cached(ctx, key, &packages) {
		return packages, nil
	}

	packages, err = s.db.Catalog().ListPackages(ctx, providerID)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(packages, func(a, b models.ServicePackage) int {
		return a.Price.Cmp(b.Price)
	})

	s.store(ctx, key, packages)
	return packages, nil
}

func (s *CatalogService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}

	found, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.logger.Warn("catalog cache read failed", "key", key, "error", err.Error())
		return false
	}
	return found
}

func (s *CatalogService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}

	if err := s.cache.SetJSON(ctx, key, v, catalogTTL); err != nil {
		s.logger.Warn("catalog cache write failed", "key", key, "error", err.Error())
	}
}
