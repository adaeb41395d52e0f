package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeWalletFunding      TransactionType = "wallet_funding"
	TransactionTypeAirtimePurchase    TransactionType = "airtime_purchase"
	TransactionTypeDataPurchase       TransactionType = "data_purchase"
	TransactionTypeElectricityPayment TransactionType = "electricity_payment"
	TransactionTypeCableSubscription  TransactionType = "cable_subscription"
)

type TransactionStatus string

// pending -> completed | failed. Both completed and failed are terminal.
const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

type Transaction struct {
	ID               string             `db:"id"`
	UserID           string             `db:"user_id"`
	WalletID         string             `db:"wallet_id"`
	Type             TransactionType    `db:"type"`
	Amount           decimal.Decimal    `db:"amount"`
	Reference        string             `db:"reference"`
	GatewayReference sql.NullString     `db:"gateway_reference"`
	PaymentMethod    string             `db:"payment_method"`
	Provider         string             `db:"provider"`
	Recipient        string             `db:"recipient"`
	Status           TransactionStatus  `db:"status"`
	Metadata         types.JSONText     `db:"metadata"`
	ProviderResponse types.NullJSONText `db:"provider_response"`
	FailureReason    string             `db:"failure_reason"`
	AuthorizationURL sql.NullString     `db:"authorization_url"`
	CompletedAt      sql.NullTime       `db:"completed_at"`
	CreatedAt        time.Time          `db:"created_at"`
	UpdatedAt        sql.NullTime       `db:"updated_at"`
}

// TransactionBucket aggregates a user's transactions of one type and status
// created on one UTC day.
type TransactionBucket struct {
	Type   TransactionType   `db:"type"`
	Status TransactionStatus `db:"status"`
	Day    time.Time         `db:"day"`
	Count  int               `db:"count"`
	Total  decimal.Decimal   `db:"total"`
}

// TransactionPatch carries the optional fields written together with a status
// transition. Zero values are left untouched.
type TransactionPatch struct {
	ProviderResponse []byte
	CompletedAt      time.Time
	GatewayReference string
	AuthorizationURL string
	FailureReason    string
}

const (
	FailureReasonInsufficientBalance = "insufficient_balance"
	FailureReasonProviderDeclined    = "provider_declined"
	FailureReasonGatewayDeclined     = "gateway_declined"
	FailureReasonTimedOut            = "timed_out"
	FailureReasonAmountMismatch      = "amount_mismatch"
)
