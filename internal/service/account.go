package service

import (
	"context"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/shopspring/decimal"
)

// AccountService answers the read side of a user's money: wallet and history.
type AccountService struct {
	db  repository.Database
	now func() time.Time
}

func NewAccountService(db repository.Database) *AccountService {
	return &AccountService{db: db, now: time.Now}
}

func (s *AccountService) Wallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, found, err := s.db.Wallet().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

func (s *AccountService) Transactions(ctx context.Context, userID string, filter repository.TransactionFilter) ([]models.Transaction, int, error) {
	return s.db.Transaction().ListByUser(ctx, userID, filter)
}

// Transaction returns one of the user's transactions. Other users'
// transactions are reported as not found.
func (s *AccountService) Transaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	tx, found, err := s.db.Transaction().GetOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found || tx.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// TransactionSummary counts a user's transactions by status and totals the
// completed ones over rolling calendar periods in UTC. Weeks start on Monday.
type TransactionSummary struct {
	TotalCount      int
	SuccessfulCount int
	FailedCount     int
	PendingCount    int
	TodayAmount     decimal.Decimal
	WeekAmount      decimal.Decimal
	MonthAmount     decimal.Decimal
	AllTimeAmount   decimal.Decimal
}

type TransactionTally struct {
	Count       int
	TotalAmount decimal.Decimal
}

func (t TransactionTally) add(b models.TransactionBucket) TransactionTally {
	return TransactionTally{Count: t.Count + b.Count, TotalAmount: t.TotalAmount.Add(b.Total)}
}

// TransactionStats breaks completed transactions down by type and by month,
// the latter keyed "2006-01".
type TransactionStats struct {
	ByType  map[models.TransactionType]TransactionTally
	ByMonth map[string]TransactionTally
}

func (s *AccountService) Summary(ctx context.Context, userID string) (*TransactionSummary, error) {
	buckets, err := s.db.Transaction().DailyBuckets(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	summary := &TransactionSummary{}
	for _, b := range buckets {
		summary.TotalCount += b.Count

		switch b.Status {
		case models.TransactionStatusPending:
			summary.PendingCount += b.Count
			continue
		case models.TransactionStatusFailed:
			summary.FailedCount += b.Count
			continue
		case models.TransactionStatusCompleted:
			summary.SuccessfulCount += b.Count
		default:
			continue
		}

		day := b.Day.UTC()
		summary.AllTimeAmount = summary.AllTimeAmount.Add(b.Total)
		if !day.Before(month) {
			summary.MonthAmount = summary.MonthAmount.Add(b.Total)
		}
		if !day.Before(week) {
			summary.WeekAmount = summary.WeekAmount.Add(b.Total)
		}
		if !day.Before(today) {
			summary.TodayAmount = summary.TodayAmount.Add(b.Total)
		}
	}

	return summary, nil
}

func (s *AccountService) Stats(ctx context.Context, userID string) (*TransactionStats, error) {
	buckets, err := s.db.Transaction().DailyBuckets(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &TransactionStats{
		ByType:  map[models.TransactionType]TransactionTally{},
		ByMonth: map[string]TransactionTally{},
	}
	for _, b := range buckets {
		if b.Status != models.TransactionStatusCompleted {
			continue
		}

		month := b.Day.UTC().Format("2006-01")
		stats.ByType[b.Type] = stats.ByType[b.Type].add(b)
		stats.ByMonth[month] = stats.ByMonth[month].add(b)
	}

	return stats, nil
}
