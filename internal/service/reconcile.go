package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/vtu"
)

const sweepBatchSize = 100

type SweepReport struct {
	PurchasesCompleted int
	PurchasesRefunded  int
	FundingCredited    int
	FundingCompleted   int
	FundingFailed      int
	Errors             int
}

// Sweeper repairs transactions a crash or a lost notification left behind:
//
//   - purchases pending past the timeout are re-queried with the aggregator
//     and completed, or failed and refunded;
//   - completed funding without a credit entry is credited;
//   - funding pending past the timeout is re-verified with its gateway.
type Sweeper struct {
	db             repository.Database
	provider       vtu.Provider
	purchases      *PurchaseService
	funding        *FundingService
	logger         *slog.Logger
	pendingTimeout time.Duration
	maxPendingAge  time.Duration
	now            func() time.Time
}

func NewSweeper(db repository.Database, provider vtu.Provider, purchases *PurchaseService, funding *FundingService, logger *slog.Logger, pendingTimeout, maxPendingAge time.Duration) *Sweeper {
	return &Sweeper{
		db:             db,
		provider:       provider,
		purchases:      purchases,
		funding:        funding,
		logger:         logger,
		pendingTimeout: pendingTimeout,
		maxPendingAge:  maxPendingAge,
		now:            time.Now,
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("reconciliation sweeper started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconciliation sweeper stopped")
			return nil
		case <-ticker.C:
			report := s.Sweep(ctx)
			if report != (SweepReport{}) {
				s.logger.Info("reconciliation sweep finished",
					"purchases_completed", report.PurchasesCompleted,
					"purchases_refunded", report.PurchasesRefunded,
					"funding_credited", report.FundingCredited,
					"funding_completed", report.FundingCompleted,
					"funding_failed", report.FundingFailed,
					"errors", report.Errors,
				)
			}
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) SweepReport {
	var report SweepReport

	s.sweepPurchases(ctx, &report)
	s.sweepUncreditedFunding(ctx, &report)
	s.sweepPendingFunding(ctx, &report)

	return report
}

func (s *Sweeper) sweepPurchases(ctx context.Context, report *SweepReport) {
	now := s.now()

	stale, err := s.db.Transaction().ListStalePending(ctx, PurchaseTransactionTypes, now.Add(-s.pendingTimeout), sweepBatchSize)
	if err != nil {
		s.logger.Error("list stale purchases", "error", err.Error())
		report.Errors++
		return
	}

	for i := range stale {
		tx := &stale[i]

		status, outcome := s.provider.QueryTransaction(ctx, tx.Reference)

		var reason string
		switch status {
		case vtu.Delivered:
			outcome.Success = true
		case vtu.NotDelivered:
			outcome.Success = false
			reason = models.FailureReasonProviderDeclined
		default:
			if now.Sub(tx.CreatedAt) < s.maxPendingAge {
				continue
			}
			outcome.Success = false
			reason = models.FailureReasonTimedOut
		}

		settled, changed, err := s.purchases.settle(ctx, tx, outcome, reason)
		if err != nil {
			s.logger.Error("settle stale purchase", "reference", tx.Reference, "error", err.Error())
			report.Errors++
			continue
		}
		if !changed {
			continue
		}

		if settled.Status == models.TransactionStatusCompleted {
			report.PurchasesCompleted++
		} else {
			report.PurchasesRefunded++
		}
		s.logger.Info("reconciled stale purchase", "reference", tx.Reference, "status", settled.Status)
	}
}

func (s *Sweeper) sweepUncreditedFunding(ctx context.Context, report *SweepReport) {
	uncredited, err := s.db.Transaction().ListUncreditedFunding(ctx, sweepBatchSize)
	if err != nil {
		s.logger.Error("list uncredited funding", "error", err.Error())
		report.Errors++
		return
	}

	for i := range uncredited {
		tx := &uncredited[i]

		applied, err := s.funding.creditCompleted(ctx, tx)
		if err != nil {
			s.logger.Error("credit completed funding", "reference", tx.Reference, "error", err.Error())
			report.Errors++
			continue
		}
		if applied {
			report.FundingCredited++
			s.logger.Warn("credited completed funding missing from ledger", "reference", tx.Reference)
		}
	}
}

func (s *Sweeper) sweepPendingFunding(ctx context.Context, report *SweepReport) {
	now := s.now()

	stale, err := s.db.Transaction().ListStalePending(ctx, []models.TransactionType{models.TransactionTypeWalletFunding}, now.Add(-s.pendingTimeout), sweepBatchSize)
	if err != nil {
		s.logger.Error("list stale funding", "error", err.Error())
		report.Errors++
		return
	}

	for i := range stale {
		tx := &stale[i]

		// An unreachable gateway says nothing about the payment, so the
		// transaction stays pending for a later sweep or the webhook.
		verification, err := s.funding.verify(ctx, tx)
		if err != nil {
			s.logger.Warn("verify stale funding", "reference", tx.Reference, "error", err.Error())
			report.Errors++
			continue
		}

		if verification.Status == gateway.VerifyPending {
			if now.Sub(tx.CreatedAt) < s.maxPendingAge {
				continue
			}
			if _, err := s.funding.fail(ctx, tx, models.FailureReasonTimedOut, verification.Raw); err != nil {
				report.Errors++
				continue
			}
			report.FundingFailed++
			continue
		}

		settled, err := s.funding.apply(ctx, tx, verification)
		if err != nil {
			s.logger.Error("apply funding verification", "reference", tx.Reference, "error", err.Error())
			report.Errors++
			continue
		}

		switch settled.Status {
		case models.TransactionStatusCompleted:
			report.FundingCompleted++
		case models.TransactionStatusFailed:
			report.FundingFailed++
		}
	}
}
