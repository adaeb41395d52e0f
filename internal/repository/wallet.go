package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cradoe/payvista/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WalletRepository interface {
	Insert(ctx context.Context, wallet *models.Wallet) (string, error)
	GetOne(ctx context.Context, id string) (*models.Wallet, bool, error)
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, bool, error)
	// Debit decrements the balance when it covers amount. The returned bool is
	// false, with no side effect, when the balance is insufficient.
	Debit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, bool, error)
	Credit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, error)
}

type WalletRepositoryImpl struct {
	db sqlx.ExtContext
}

func NewWalletRepository(db sqlx.ExtContext) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

const walletColumns = `id, user_id, balance, currency, status, created_at, updated_at`

func (repo *WalletRepositoryImpl) Insert(ctx context.Context, wallet *models.Wallet) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	currency := wallet.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	var id string
	query := `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		RETURNING id`

	err := sqlx.GetContext(ctx, repo.db, &id, query, wallet.UserID, currency)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateEntry
		}
		return "", err
	}

	return id, nil
}

func (repo *WalletRepositoryImpl) GetOne(ctx context.Context, id string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	err := sqlx.GetContext(ctx, repo.db, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetByUserID(ctx context.Context, userID string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	err := sqlx.GetContext(ctx, repo.db, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// Debit must run inside a transaction; the row stays locked until it ends.
func (repo *WalletRepositoryImpl) Debit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	wallet, err := repo.lock(ctx, walletID)
	if err != nil {
		return nil, false, err
	}

	if wallet.Balance.LessThan(amount) {
		return wallet, false, nil
	}

	query := `
		UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + walletColumns

	var updated models.Wallet
	if err := sqlx.GetContext(ctx, repo.db, &updated, query, amount, walletID); err != nil {
		return nil, false, err
	}

	return &updated, true, nil
}

// Credit must run inside a transaction; the row stays locked until it ends.
func (repo *WalletRepositoryImpl) Credit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := repo.lock(ctx, walletID); err != nil {
		return nil, err
	}

	query := `
		UPDATE wallets SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + walletColumns

	var updated models.Wallet
	if err := sqlx.GetContext(ctx, repo.db, &updated, query, amount, walletID); err != nil {
		return nil, err
	}

	return &updated, nil
}

// pessimistic lock on the wallet row for the duration of the enclosing transaction
func (repo *WalletRepositoryImpl) lock(ctx context.Context, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`

	err := sqlx.GetContext(ctx, repo.db, &wallet, query, walletID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &wallet, nil
}
