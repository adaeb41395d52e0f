package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/shopspring/decimal"
)

type FundingRequest struct {
	UserID         string
	Email          string
	Phone          string
	Name           string
	Amount         decimal.Decimal
	Gateway        string
	IdempotencyKey string
}

type FundingService struct {
	db             repository.Database
	gateways       *gateway.Registry
	notifier       Notifier
	logger         *slog.Logger
	gatewayTimeout time.Duration
	ledger         Ledger
	now            func() time.Time
}

func NewFundingService(db repository.Database, gateways *gateway.Registry, notifier Notifier, logger *slog.Logger, gatewayTimeout time.Duration) *FundingService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 30 * time.Second
	}

	return &FundingService{
		db:             db,
		gateways:       gateways,
		notifier:       notifier,
		logger:         logger,
		gatewayTimeout: gatewayTimeout,
		now:            time.Now,
	}
}

// Initialize records a pending funding transaction and asks the gateway for
// a payment page. Nothing is credited here.
func (s *FundingService) Initialize(ctx context.Context, req FundingRequest) (*models.Transaction, error) {
	if !validAmount(req.Amount) {
		return nil, ErrInvalidAmount
	}

	gw, ok := s.gateways.Get(req.Gateway)
	if !ok {
		return nil, ErrUnsupportedGateway
	}

	wallet, found, err := s.db.Wallet().GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrWalletNotFound
	}
	if !wallet.IsActive() {
		return nil, ErrWalletInactive
	}

	reference := NewReference(models.TransactionTypeWalletFunding, req.UserID, req.IdempotencyKey)

	tx, err := s.db.Transaction().Create(ctx, &models.Transaction{
		UserID:        req.UserID,
		WalletID:      wallet.ID,
		Type:          models.TransactionTypeWalletFunding,
		Amount:        req.Amount,
		Reference:     reference,
		PaymentMethod: gw.Name(),
		Provider:      gw.Name(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			existing, found, findErr := s.db.Transaction().FindByReference(ctx, reference)
			if findErr == nil && found {
				return existing, ErrDuplicateReference
			}
		}
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	auth, err := gw.Initialize(callCtx, gateway.InitializeRequest{
		Amount:    req.Amount,
		Currency:  wallet.Currency,
		Reference: reference,
		Email:     req.Email,
		Phone:     req.Phone,
		Name:      req.Name,
		Metadata: map[string]string{
			"user_id": req.UserID,
			"type":    string(models.TransactionTypeWalletFunding),
		},
	})
	if err != nil {
		s.logger.Error("payment initialization failed", "gateway", gw.Name(), "reference", reference, "error", err.Error())

		failed, _, failErr := s.db.Transaction().TransitionTo(context.WithoutCancel(ctx), tx.ID, models.TransactionStatusFailed, models.TransactionPatch{
			FailureReason: models.FailureReasonGatewayDeclined,
		})
		if failErr != nil {
			s.logger.Error("mark funding failed", "reference", reference, "error", failErr.Error())
		}

		return failed, &PaymentGatewayError{Op: "initialize", Err: err}
	}

	tx, err = s.db.Transaction().SetAuthorization(ctx, tx.ID, auth.GatewayReference, auth.AuthorizationURL)
	if err != nil {
		return nil, fmt.Errorf("store authorization: %w", err)
	}

	return tx, nil
}

// Verify re-queries the gateway for a user's funding transaction, looked up
// by its own reference. A terminal transaction is returned as it is.
func (s *FundingService) Verify(ctx context.Context, userID, reference string) (*models.Transaction, error) {
	tx, found, err := s.db.Transaction().FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !found || tx.UserID != userID || tx.Type != models.TransactionTypeWalletFunding {
		return nil, ErrTransactionNotFound
	}

	if tx.Status.IsTerminal() {
		return tx, nil
	}

	verification, err := s.verify(ctx, tx)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, tx, verification)
}

func (s *FundingService) verify(ctx context.Context, tx *models.Transaction) (*gateway.Verification, error) {
	gw, ok := s.gateways.Get(tx.PaymentMethod)
	if !ok {
		return nil, ErrUnsupportedGateway
	}

	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	verification, err := gw.Verify(callCtx, tx.Reference, tx.GatewayReference.String)
	if err != nil {
		s.logger.Error("payment verification failed", "gateway", gw.Name(), "reference", tx.Reference, "error", err.Error())
		return nil, &PaymentGatewayError{Op: "verify", Err: err}
	}

	return verification, nil
}

// apply moves a pending funding transaction according to the gateway verdict.
func (s *FundingService) apply(ctx context.Context, tx *models.Transaction, v *gateway.Verification) (*models.Transaction, error) {
	switch v.Status {
	case gateway.VerifySuccess:
		if v.Amount.IsPositive() && v.Amount.LessThan(tx.Amount) {
			s.logger.Warn("gateway settled less than requested",
				"reference", tx.Reference,
				"requested", tx.Amount.String(),
				"settled", v.Amount.String(),
			)
			return s.fail(ctx, tx, models.FailureReasonAmountMismatch, v.Raw)
		}
		return s.CompleteFunding(ctx, tx.ID, v.Raw)
	case gateway.VerifyFailed:
		return s.fail(ctx, tx, models.FailureReasonGatewayDeclined, v.Raw)
	}

	return tx, nil
}

func (s *FundingService) fail(ctx context.Context, tx *models.Transaction, reason string, raw []byte) (*models.Transaction, error) {
	failed, changed, err := s.db.Transaction().TransitionTo(ctx, tx.ID, models.TransactionStatusFailed, models.TransactionPatch{
		ProviderResponse: raw,
		FailureReason:    reason,
	})
	if err != nil {
		return nil, err
	}

	if changed && s.notifier != nil {
		s.notifier.TransactionSettled(ctx, failed)
	}

	return failed, nil
}

// CompleteFunding marks a funding transaction completed and credits the
// wallet in one unit of work. It is idempotent: an already completed (or
// failed) transaction is returned unchanged and nothing is credited.
func (s *FundingService) CompleteFunding(ctx context.Context, transactionID string, gatewayResponse []byte) (*models.Transaction, error) {
	var result *models.Transaction
	var changed bool

	err := s.db.WithinTx(ctx, func(db repository.Database) error {
		current, err := db.Transaction().GetForUpdate(ctx, transactionID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		if current.Type != models.TransactionTypeWalletFunding {
			return ErrNotFunding
		}

		if current.Status.IsTerminal() {
			result = current
			return nil
		}

		result, changed, err = db.Transaction().TransitionTo(ctx, current.ID, models.TransactionStatusCompleted, models.TransactionPatch{
			ProviderResponse: gatewayResponse,
			CompletedAt:      s.now(),
		})
		if err != nil || !changed {
			return err
		}

		_, _, err = s.ledger.Credit(ctx, db, current.WalletID, current.ID, current.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("wallet funding completed", "reference", result.Reference, "amount", result.Amount.String())
		if s.notifier != nil {
			s.notifier.TransactionSettled(ctx, result)
		}
	}

	return result, nil
}

// creditCompleted credits a completed funding transaction that has no credit
// entry yet. applied is false when the credit already exists.
func (s *FundingService) creditCompleted(ctx context.Context, tx *models.Transaction) (bool, error) {
	var applied bool

	err := s.db.WithinTx(ctx, func(db repository.Database) error {
		current, err := db.Transaction().GetForUpdate(ctx, tx.ID)
		if err != nil {
			return err
		}
		if current.Type != models.TransactionTypeWalletFunding || current.Status != models.TransactionStatusCompleted {
			return nil
		}

		_, applied, err = s.ledger.Credit(ctx, db, current.WalletID, current.ID, current.Amount)
		return err
	})

	return applied, err
}
