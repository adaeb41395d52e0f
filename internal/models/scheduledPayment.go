package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyOneTime   Frequency = "one_time"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// Next returns the date following from for a recurring frequency. The second
// return value is false for one-time schedules.
func (f Frequency) Next(from time.Time) (time.Time, bool) {
	switch f {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1), true
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7), true
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14), true
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0), true
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0), true
	}
	return time.Time{}, false
}

const (
	ScheduleStatusActive    = "active"
	ScheduleStatusPaused    = "paused"
	ScheduleStatusCompleted = "completed"

	SchedulePaymentSuccess = "success"
	SchedulePaymentFailed  = "failed"
)

type ScheduledPayment struct {
	ID                  string          `db:"id"`
	UserID              string          `db:"user_id"`
	ServiceType         ServiceType     `db:"service_type"`
	ProviderID          string          `db:"provider_id"`
	PackageID           sql.NullString  `db:"package_id"`
	Recipient           string          `db:"recipient"`
	Amount              decimal.Decimal `db:"amount"`
	Frequency           Frequency       `db:"frequency"`
	Status              string          `db:"status"`
	Metadata            types.JSONText  `db:"metadata"`
	StartDate           time.Time       `db:"start_date"`
	NextPaymentDate     time.Time       `db:"next_payment_date"`
	LastPaymentDate     sql.NullTime    `db:"last_payment_date"`
	LastPaymentStatus   string          `db:"last_payment_status"`
	LastTransactionID   sql.NullString  `db:"last_transaction_id"`
	FailureReason       string          `db:"failure_reason"`
	ConsecutiveFailures int             `db:"consecutive_failures"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           sql.NullTime    `db:"updated_at"`
}
