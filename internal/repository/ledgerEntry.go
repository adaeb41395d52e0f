package repository

import (
	"context"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
)

type LedgerEntryRepository interface {
	Insert(ctx context.Context, entry *models.LedgerEntry) (string, error)
	Exists(ctx context.Context, transactionID string, entryType models.LedgerEntryType) (bool, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]models.LedgerEntry, error)
}

type LedgerEntryRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewLedgerEntryRepository(db sqlx.ExtContext) LedgerEntryRepository {
	return &LedgerEntryRepositoryImpl{db: db}
}

func (repo *LedgerEntryRepositoryImpl) Insert(ctx context.Context, entry *models.LedgerEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO wallet_entries (wallet_id, transaction_id, entry_type, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.db, &id, query,
		entry.WalletID,
		entry.TransactionID,
		entry.EntryType,
		entry.Amount,
		entry.BalanceAfter,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateEntry
		}
		return "", err
	}

	return id, nil
}

func (repo *LedgerEntryRepositoryImpl) Exists(ctx context.Context, transactionID string, entryType models.LedgerEntryType) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM wallet_entries WHERE transaction_id = $1 AND entry_type = $2)`

	err := sqlx.GetContext(ctx, repo.db, &exists, query, transactionID, entryType)
	return exists, err
}

func (repo *LedgerEntryRepositoryImpl) ListByTransaction(ctx context.Context, transactionID string) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entries := []models.LedgerEntry{}
	query := `
		SELECT id, wallet_id, transaction_id, entry_type, amount, balance_after, created_at
		FROM wallet_entries WHERE transaction_id = $1 ORDER BY created_at`

	err := sqlx.SelectContext(ctx, repo.db, &entries, query, transactionID)
	return entries, err
}
