package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

type TransactionFilter struct {
	Type    string
	Status  string
	Page    int
	PerPage int
}

type TransactionRepository interface {
	// Create inserts a pending transaction. It returns ErrDuplicateReference
	// when the reference is already taken.
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	GetOne(ctx context.Context, id string) (*models.Transaction, bool, error)
	GetForUpdate(ctx context.Context, id string) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, bool, error)
	FindByGatewayReference(ctx context.Context, gatewayReference string) (*models.Transaction, bool, error)
	// TransitionTo moves a pending transaction to status and applies patch. If
	// the transaction is already terminal nothing is written and the current
	// row is returned with changed set to false.
	TransitionTo(ctx context.Context, id string, status models.TransactionStatus, patch models.TransactionPatch) (tx *models.Transaction, changed bool, err error)
	SetAuthorization(ctx context.Context, id, gatewayReference, authorizationURL string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, int, error)
	ListStalePending(ctx context.Context, txTypes []models.TransactionType, olderThan time.Time, limit int) ([]models.Transaction, error)
	ListUncreditedFunding(ctx context.Context, limit int) ([]models.Transaction, error)
	// DailyBuckets groups the user's transactions by type, status and UTC day.
	DailyBuckets(ctx context.Context, userID string) ([]models.TransactionBucket, error)
}

type TransactionRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewTransactionRepository(db sqlx.ExtContext) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

const transactionColumns = `id, user_id, wallet_id, type, amount, reference, gateway_reference, payment_method,
	provider, recipient, status, metadata, provider_response, failure_reason, authorization_url,
	completed_at, created_at, updated_at`

func (repo *TransactionRepositoryImpl) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	metadata := tx.Metadata
	if len(metadata) == 0 {
		metadata = types.JSONText("{}")
	}

	query := `
		INSERT INTO transactions (user_id, wallet_id, type, amount, reference, gateway_reference,
			payment_method, provider, recipient, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + transactionColumns

	var created models.Transaction
	err := sqlx.GetContext(ctx, repo.db, &created, query,
		tx.UserID,
		tx.WalletID,
		tx.Type,
		tx.Amount,
		tx.Reference,
		tx.GatewayReference,
		tx.PaymentMethod,
		tx.Provider,
		tx.Recipient,
		models.TransactionStatusPending,
		metadata,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	return &created, nil
}

func (repo *TransactionRepositoryImpl) GetOne(ctx context.Context, id string) (*models.Transaction, bool, error) {
	return repo.findBy(ctx, "id", id)
}

func (repo *TransactionRepositoryImpl) FindByReference(ctx context.Context, reference string) (*models.Transaction, bool, error) {
	return repo.findBy(ctx, "reference", reference)
}

func (repo *TransactionRepositoryImpl) FindByGatewayReference(ctx context.Context, gatewayReference string) (*models.Transaction, bool, error) {
	return repo.findBy(ctx, "gateway_reference", gatewayReference)
}

func (repo *TransactionRepositoryImpl) findBy(ctx context.Context, column, value string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tx models.Transaction

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + column + ` = $1`

	err := sqlx.GetContext(ctx, repo.db, &tx, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &tx, true, nil
}

func (repo *TransactionRepositoryImpl) GetForUpdate(ctx context.Context, id string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tx models.Transaction

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	err := sqlx.GetContext(ctx, repo.db, &tx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &tx, nil
}

func (repo *TransactionRepositoryImpl) TransitionTo(ctx context.Context, id string, status models.TransactionStatus, patch models.TransactionPatch) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	providerResponse := types.NullJSONText{}
	if len(patch.ProviderResponse) > 0 {
		providerResponse = types.NullJSONText{JSONText: types.JSONText(patch.ProviderResponse), Valid: true}
	}

	completedAt := sql.NullTime{}
	if !patch.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: patch.CompletedAt, Valid: true}
	}

	gatewayReference := sql.NullString{}
	if patch.GatewayReference != "" {
		gatewayReference = sql.NullString{String: patch.GatewayReference, Valid: true}
	}

	// only pending rows move; gateway_reference is written at most once
	query := `
		UPDATE transactions SET
			status = $2,
			provider_response = COALESCE($3, provider_response),
			completed_at = COALESCE($4, completed_at),
			gateway_reference = COALESCE(gateway_reference, $5),
			failure_reason = CASE WHEN $6::text = '' THEN failure_reason ELSE $6::text END,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + transactionColumns

	var tx models.Transaction
	err := sqlx.GetContext(ctx, repo.db, &tx, query,
		id,
		status,
		providerResponse,
		completedAt,
		gatewayReference,
		patch.FailureReason,
	)
	if err == nil {
		return &tx, true, nil
	}

	if isUniqueViolation(err) {
		return nil, false, ErrDuplicateReference
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("transition transaction: %w", err)
	}

	current, found, err := repo.GetOne(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, ErrRecordNotFound
	}

	return current, false, nil
}

func (repo *TransactionRepositoryImpl) SetAuthorization(ctx context.Context, id, gatewayReference, authorizationURL string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE transactions SET
			gateway_reference = COALESCE(gateway_reference, NULLIF($2, '')),
			authorization_url = COALESCE(NULLIF($3, ''), authorization_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + transactionColumns

	var tx models.Transaction
	err := sqlx.GetContext(ctx, repo.db, &tx, query, id, gatewayReference, authorizationURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	return &tx, nil
}

func (repo *TransactionRepositoryImpl) ListByUser(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + where
	if err := sqlx.GetContext(ctx, repo.db, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	page, perPage := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, len(args)-1, len(args))

	transactions := []models.Transaction{}
	if err := sqlx.SelectContext(ctx, repo.db, &transactions, query, args...); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func (repo *TransactionRepositoryImpl) ListStalePending(ctx context.Context, txTypes []models.TransactionType, olderThan time.Time, limit int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	typeNames := make([]string, len(txTypes))
	for i, t := range txTypes {
		typeNames[i] = string(t)
	}

	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = 'pending' AND type = ANY($1) AND created_at < $2
		ORDER BY created_at
		LIMIT $3`

	transactions := []models.Transaction{}
	err := sqlx.SelectContext(ctx, repo.db, &transactions, query, pq.Array(typeNames), olderThan, limit)
	return transactions, err
}

// ListUncreditedFunding returns completed funding transactions that have no
// credit entry in the wallet journal.
func (repo *TransactionRepositoryImpl) ListUncreditedFunding(ctx context.Context, limit int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		SELECT ` + transactionColumns + ` FROM transactions t
		WHERE t.type = 'wallet_funding' AND t.status = 'completed'
		AND NOT EXISTS (
			SELECT 1 FROM wallet_entries e WHERE e.transaction_id = t.id AND e.entry_type = 'credit'
		)
		ORDER BY t.completed_at
		LIMIT $1`

	transactions := []models.Transaction{}
	err := sqlx.SelectContext(ctx, repo.db, &transactions, query, limit)
	return transactions, err
}

func (repo *TransactionRepositoryImpl) DailyBuckets(ctx context.Context, userID string) ([]models.TransactionBucket, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		SELECT type, status, date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
			COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE user_id = $1
		GROUP BY type, status, day
		ORDER BY day`

	buckets := []models.TransactionBucket{}
	err := sqlx.SelectContext(ctx, repo.db, &buckets, query, userID)
	return buckets, err
}
