package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/shopspring/decimal"
)

// Ledger mutates wallet balances. Every method expects a transactional
// Database (see repository.Database.WithinTx); the wallet row stays locked
// until that transaction ends, which serializes mutations per wallet.
//
// Each mutation is journalled in wallet_entries against the transaction that
// caused it. A transaction can hold one entry per type, which makes credits
// and refunds safe to repeat.
type Ledger struct{}

// Reserve debits amount from the wallet or fails with ErrInsufficientBalance
// without side effects.
func (Ledger) Reserve(ctx context.Context, db repository.Database, walletID, transactionID string, amount decimal.Decimal) (*models.Wallet, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	wallet, ok, err := db.Wallet().Debit(ctx, walletID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("debit wallet: %w", err)
	}

	if !ok {
		return nil, ErrInsufficientBalance
	}

	if err := journal(ctx, db, wallet, transactionID, models.LedgerEntryDebit, amount); err != nil {
		return nil, err
	}

	return wallet, nil
}

// Credit adds amount to the wallet once per transaction. applied is false
// when the transaction was already credited.
func (Ledger) Credit(ctx context.Context, db repository.Database, walletID, transactionID string, amount decimal.Decimal) (wallet *models.Wallet, applied bool, err error) {
	return increment(ctx, db, walletID, transactionID, models.LedgerEntryCredit, amount)
}

// Refund is the compensating credit for an earlier Reserve.
func (Ledger) Refund(ctx context.Context, db repository.Database, walletID, transactionID string, amount decimal.Decimal) (wallet *models.Wallet, applied bool, err error) {
	return increment(ctx, db, walletID, transactionID, models.LedgerEntryRefund, amount)
}

// validAmount reports whether amount is positive and whole in kobo. Balances
// are stored as NUMERIC(14,2), so anything finer would be rounded on write.
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}

func increment(ctx context.Context, db repository.Database, walletID, transactionID string, entryType models.LedgerEntryType, amount decimal.Decimal) (*models.Wallet, bool, error) {
	if !validAmount(amount) {
		return nil, false, ErrInvalidAmount
	}

	exists, err := db.LedgerEntry().Exists(ctx, transactionID, entryType)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	wallet, err := db.Wallet().Credit(ctx, walletID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, false, ErrWalletNotFound
		}
		return nil, false, fmt.Errorf("%s wallet: %w", entryType, err)
	}

	if err := journal(ctx, db, wallet, transactionID, entryType, amount); err != nil {
		return nil, false, err
	}

	return wallet, true, nil
}

func journal(ctx context.Context, db repository.Database, wallet *models.Wallet, transactionID string, entryType models.LedgerEntryType, amount decimal.Decimal) error {
	_, err := db.LedgerEntry().Insert(ctx, &models.LedgerEntry{
		WalletID:      wallet.ID,
		TransactionID: transactionID,
		EntryType:     entryType,
		Amount:        amount,
		BalanceAfter:  wallet.Balance,
	})
	if err != nil {
		return fmt.Errorf("journal %s entry: %w", entryType, err)
	}

	_, err = db.Activity().Insert(ctx, &models.ActivityLog{
		UserID:      wallet.UserID,
		Entity:      repository.ActivityLogTransactionEntity,
		EntityId:    transactionID,
		Description: activityDescriptions[entryType],
	})
	return err
}

var activityDescriptions = map[models.LedgerEntryType]string{
	models.LedgerEntryDebit:  "wallet debited",
	models.LedgerEntryCredit: "wallet credited",
	models.LedgerEntryRefund: "wallet refunded",
}
