package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

type BeneficiaryRepository interface {
	// Upsert keeps one beneficiary per (user, service type, identifier).
	Upsert(ctx context.Context, beneficiary *models.Beneficiary) (*models.Beneficiary, error)
	ListByUser(ctx context.Context, userID string, serviceType models.ServiceType) ([]models.Beneficiary, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type BeneficiaryRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewBeneficiaryRepository(db sqlx.ExtContext) BeneficiaryRepository {
	return &BeneficiaryRepositoryImpl{db: db}
}

const beneficiaryColumns = `id, user_id, provider_id, name, identifier, service_type, metadata, is_favorite, created_at`

func (repo *BeneficiaryRepositoryImpl) Upsert(ctx context.Context, beneficiary *models.Beneficiary) (*models.Beneficiary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	metadata := beneficiary.Metadata
	if len(metadata) == 0 {
		metadata = types.JSONText("{}")
	}

	query := `
		INSERT INTO beneficiaries (user_id, provider_id, name, identifier, service_type, metadata, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, service_type, identifier) DO UPDATE SET
			provider_id = EXCLUDED.provider_id,
			name = CASE WHEN EXCLUDED.name = '' THEN beneficiaries.name ELSE EXCLUDED.name END,
			metadata = EXCLUDED.metadata
		RETURNING ` + beneficiaryColumns

	var saved models.Beneficiary
	err := sqlx.GetContext(ctx, repo.db, &saved, query,
		beneficiary.UserID,
		beneficiary.ProviderID,
		beneficiary.Name,
		beneficiary.Identifier,
		beneficiary.ServiceType,
		metadata,
		beneficiary.IsFavorite,
	)
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (repo *BeneficiaryRepositoryImpl) ListByUser(ctx context.Context, userID string, serviceType models.ServiceType) ([]models.Beneficiary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	beneficiaries := []models.Beneficiary{}
	query := `
		SELECT ` + beneficiaryColumns + ` FROM beneficiaries
		WHERE user_id = $1 AND ($2 = '' OR service_type = $2)
		ORDER BY is_favorite DESC, created_at DESC`

	err := sqlx.SelectContext(ctx, repo.db, &beneficiaries, query, userID, string(serviceType))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return beneficiaries, nil
}

func (repo *BeneficiaryRepositoryImpl) Delete(ctx context.Context, id, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `DELETE FROM beneficiaries WHERE id = $1 AND user_id = $2`

	result, err := repo.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
