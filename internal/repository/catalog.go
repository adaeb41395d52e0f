package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
)

type CatalogRepository interface {
	InsertProvider(ctx context.Context, provider *models.Provider) (string, error)
	InsertPackage(ctx context.Context, pkg *models.ServicePackage) (string, error)
	GetProvider(ctx context.Context, id string) (*models.Provider, bool, error)
	FindProviderByCode(ctx context.Context, serviceType models.ServiceType, code string) (*models.Provider, bool, error)
	ListProviders(ctx context.Context, serviceType models.ServiceType) ([]models.Provider, error)
	GetPackage(ctx context.Context, id string) (*models.ServicePackage, bool, error)
	ListPackages(ctx context.Context, providerID string) ([]models.ServicePackage, error)
}

type CatalogRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewCatalogRepository(db sqlx.ExtContext) CatalogRepository {
	return &CatalogRepositoryImpl{db: db}
}

func (repo *CatalogRepositoryImpl) InsertProvider(ctx context.Context, provider *models.Provider) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO providers (name, code, service_type, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code, service_type) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.db, &id, query, provider.Name, provider.Code, provider.ServiceType, provider.IsActive)
	return id, err
}

func (repo *CatalogRepositoryImpl) InsertPackage(ctx context.Context, pkg *models.ServicePackage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO service_packages (provider_id, name, code, price, validity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_id, code) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.db, &id, query, pkg.ProviderID, pkg.Name, pkg.Code, pkg.Price, pkg.Validity, pkg.IsActive)
	return id, err
}

func (repo *CatalogRepositoryImpl) GetProvider(ctx context.Context, id string) (*models.Provider, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var provider models.Provider
	query := `SELECT id, name, code, service_type, is_active, created_at FROM providers WHERE id = $1`

	err := sqlx.GetContext(ctx, repo.db, &provider, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &provider, true, nil
}

func (repo *CatalogRepositoryImpl) FindProviderByCode(ctx context.Context, serviceType models.ServiceType, code string) (*models.Provider, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var provider models.Provider
	query := `SELECT id, name, code, service_type, is_active, created_at FROM providers WHERE service_type = $1 AND code = $2`

	err := sqlx.GetContext(ctx, repo.db, &provider, query, serviceType, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &provider, true, nil
}

func (repo *CatalogRepositoryImpl) ListProviders(ctx context.Context, serviceType models.ServiceType) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	providers := []models.Provider{}
	query := `
		SELECT id, name, code, service_type, is_active, created_at FROM providers
		WHERE service_type = $1 AND is_active = TRUE`

	err := sqlx.SelectContext(ctx, repo.db, &providers, query, serviceType)
	return providers, err
}

func (repo *CatalogRepositoryImpl) GetPackage(ctx context.Context, id string) (*models.ServicePackage, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var pkg models.ServicePackage
	query := `SELECT id, provider_id, name, code, price, validity, is_active, created_at FROM service_packages WHERE id = $1`

	err := sqlx.GetContext(ctx, repo.db, &pkg, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &pkg, true, nil
}

func (repo *CatalogRepositoryImpl) ListPackages(ctx context.Context, providerID string) ([]models.ServicePackage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	packages := []models.ServicePackage{}
	query := `
		SELECT id, provider_id, name, code, price, validity, is_active, created_at FROM service_packages
		WHERE provider_id = $1 AND is_active = TRUE`

	err := sqlx.SelectContext(ctx, repo.db, &packages, query, providerID)
	return packages, err
}
