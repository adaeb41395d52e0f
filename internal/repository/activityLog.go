// Every money movement leaves an activity row next to the ledger journal.
// entity/entity_id are polymorphic so the table serves transactions, wallets,
// schedules and users alike.
package repository

import (
	"context"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
)

type ActivityRepository interface {
	Insert(ctx context.Context, log *models.ActivityLog) (*models.ActivityLog, error)
	ListByEntity(ctx context.Context, entity, entityID string) ([]models.ActivityLog, error)
}

const (
	ActivityLogTransactionEntity = "transaction"
	ActivityLogWalletEntity      = "wallet"
	ActivityLogUserEntity        = "user"
	ActivityLogScheduleEntity    = "scheduled_payment"
)

type ActivityRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewActivityRepository(db sqlx.ExtContext) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(ctx context.Context, log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var saved models.ActivityLog

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, entity, entity_id, description, created_at`

	err := sqlx.GetContext(ctx, repo.db, &saved, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	)
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (repo *ActivityRepositoryImpl) ListByEntity(ctx context.Context, entity, entityID string) ([]models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	logs := []models.ActivityLog{}
	query := `
		SELECT id, user_id, entity, entity_id, description, created_at FROM activity_logs
		WHERE entity = $1 AND entity_id = $2 ORDER BY created_at`

	err := sqlx.SelectContext(ctx, repo.db, &logs, query, entity, entityID)
	return logs, err
}
