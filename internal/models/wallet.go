package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	Currency  string          `db:"currency"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt sql.NullTime    `db:"updated_at"`
}

const (
	WalletActiveStatus = "active"
	WalletOnHoldStatus = "on-hold"

	DefaultCurrency = "NGN"
)

func (w *Wallet) IsActive() bool {
	return w.Status == WalletActiveStatus
}

type LedgerEntryType string

const (
	LedgerEntryDebit  LedgerEntryType = "debit"
	LedgerEntryRefund LedgerEntryType = "refund"
	LedgerEntryCredit LedgerEntryType = "credit"
)

// LedgerEntry records a single balance mutation. A transaction owns at most one
// entry of each type.
type LedgerEntry struct {
	ID            string          `db:"id"`
	WalletID      string          `db:"wallet_id"`
	TransactionID string          `db:"transaction_id"`
	EntryType     LedgerEntryType `db:"entry_type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	CreatedAt     time.Time       `db:"created_at"`
}
