package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

type ScheduledPaymentRepository interface {
	Insert(ctx context.Context, sp *models.ScheduledPayment) (*models.ScheduledPayment, error)
	GetOne(ctx context.Context, id string) (*models.ScheduledPayment, bool, error)
	GetForUpdate(ctx context.Context, id string) (*models.ScheduledPayment, error)
	ListByUser(ctx context.Context, userID string) ([]models.ScheduledPayment, error)
	// ListDue returns active schedules whose next payment date is on or before asOf.
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]models.ScheduledPayment, error)
	Update(ctx context.Context, sp *models.ScheduledPayment) error
}

type ScheduledPaymentRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewScheduledPaymentRepository(db sqlx.ExtContext) ScheduledPaymentRepository {
	return &ScheduledPaymentRepositoryImpl{db: db}
}

const scheduledPaymentColumns = `id, user_id, service_type, provider_id, package_id, recipient, amount, frequency,
	status, metadata, start_date, next_payment_date, last_payment_date, last_payment_status,
	last_transaction_id, failure_reason, consecutive_failures, created_at, updated_at`

func (repo *ScheduledPaymentRepositoryImpl) Insert(ctx context.Context, sp *models.ScheduledPayment) (*models.ScheduledPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	metadata := sp.Metadata
	if len(metadata) == 0 {
		metadata = types.JSONText("{}")
	}

	query := `
		INSERT INTO scheduled_payments (user_id, service_type, provider_id, package_id, recipient, amount,
			frequency, status, metadata, start_date, next_payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + scheduledPaymentColumns

	var saved models.ScheduledPayment
	err := sqlx.GetContext(ctx, repo.db, &saved, query,
		sp.UserID,
		sp.ServiceType,
		sp.ProviderID,
		sp.PackageID,
		sp.Recipient,
		sp.Amount,
		sp.Frequency,
		models.ScheduleStatusActive,
		metadata,
		sp.StartDate,
		sp.NextPaymentDate,
	)
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (repo *ScheduledPaymentRepositoryImpl) GetOne(ctx context.Context, id string) (*models.ScheduledPayment, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var sp models.ScheduledPayment
	query := `SELECT ` + scheduledPaymentColumns + ` FROM scheduled_payments WHERE id = $1`

	err := sqlx.GetContext(ctx, repo.db, &sp, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &sp, true, nil
}

func (repo *ScheduledPaymentRepositoryImpl) GetForUpdate(ctx context.Context, id string) (*models.ScheduledPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var sp models.ScheduledPayment
	query := `SELECT ` + scheduledPaymentColumns + ` FROM scheduled_payments WHERE id = $1 FOR UPDATE`

	err := sqlx.GetContext(ctx, repo.db, &sp, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &sp, nil
}

func (repo *ScheduledPaymentRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]models.ScheduledPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payments := []models.ScheduledPayment{}
	query := `SELECT ` + scheduledPaymentColumns + ` FROM scheduled_payments WHERE user_id = $1 ORDER BY next_payment_date`

	err := sqlx.SelectContext(ctx, repo.db, &payments, query, userID)
	return payments, err
}

func (repo *ScheduledPaymentRepositoryImpl) ListDue(ctx context.Context, asOf time.Time, limit int) ([]models.ScheduledPayment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payments := []models.ScheduledPayment{}
	query := `
		SELECT ` + scheduledPaymentColumns + ` FROM scheduled_payments
		WHERE status = 'active' AND next_payment_date <= $1
		ORDER BY next_payment_date
		LIMIT $2`

	err := sqlx.SelectContext(ctx, repo.db, &payments, query, asOf, limit)
	return payments, err
}

func (repo *ScheduledPaymentRepositoryImpl) Update(ctx context.Context, sp *models.ScheduledPayment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE scheduled_payments SET
			status = $2,
			next_payment_date = $3,
			last_payment_date = $4,
			last_payment_status = $5,
			last_transaction_id = $6,
			failure_reason = $7,
			consecutive_failures = $8,
			updated_at = NOW()
		WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query,
		sp.ID,
		sp.Status,
		sp.NextPaymentDate,
		sp.LastPaymentDate,
		sp.LastPaymentStatus,
		sp.LastTransactionID,
		sp.FailureReason,
		sp.ConsecutiveFailures,
	)
	return err
}
