package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/vtu"
	"github.com/shopspring/decimal"
)

type PurchaseRequest struct {
	UserID     string
	Service    models.ServiceType
	ProviderID string
	// PackageID is required for data and cable; the package price is charged.
	PackageID string
	// Amount is charged for airtime and electricity.
	Amount decimal.Decimal
	// Recipient is the phone, meter or smart card number being served.
	Recipient string
	Phone     string
	MeterType string

	IdempotencyKey  string
	SaveBeneficiary bool
	BeneficiaryName string
}

// order is what a fulfilment needs to call the aggregator.
type order struct {
	providerCode string
	packageCode  string
	recipient    string
	phone        string
	meterType    string
	amount       decimal.Decimal
	reference    string
}

// fulfilment describes one service type: the transaction it records and the
// aggregator operation that delivers it.
type fulfilment struct {
	txType       models.TransactionType
	needsPackage bool
	deliver      func(ctx context.Context, p vtu.Provider, o order) vtu.Outcome
}

var fulfilments = map[models.ServiceType]fulfilment{
	models.ServiceAirtime: {
		txType: models.TransactionTypeAirtimePurchase,
		deliver: func(ctx context.Context, p vtu.Provider, o order) vtu.Outcome {
			return p.PurchaseAirtime(ctx, o.providerCode, o.recipient, o.amount, o.reference)
		},
	},
	models.ServiceData: {
		txType:       models.TransactionTypeDataPurchase,
		needsPackage: true,
		deliver: func(ctx context.Context, p vtu.Provider, o order) vtu.Outcome {
			return p.PurchaseData(ctx, o.providerCode, o.recipient, o.packageCode, o.reference)
		},
	},
	models.ServiceElectricity: {
		txType: models.TransactionTypeElectricityPayment,
		deliver: func(ctx context.Context, p vtu.Provider, o order) vtu.Outcome {
			return p.PayElectricity(ctx, o.providerCode, o.recipient, o.meterType, o.amount, o.phone, o.reference)
		},
	},
	models.ServiceCable: {
		txType:       models.TransactionTypeCableSubscription,
		needsPackage: true,
		deliver: func(ctx context.Context, p vtu.Provider, o order) vtu.Outcome {
			return p.SubscribeCable(ctx, o.providerCode, o.recipient, o.packageCode, o.phone, o.reference)
		},
	},
}

// PurchaseTransactionTypes lists the transaction types created by purchases.
var PurchaseTransactionTypes = []models.TransactionType{
	models.TransactionTypeAirtimePurchase,
	models.TransactionTypeDataPurchase,
	models.TransactionTypeElectricityPayment,
	models.TransactionTypeCableSubscription,
}

type PurchaseService struct {
	db              repository.Database
	provider        vtu.Provider
	notifier        Notifier
	beneficiaries   *BeneficiaryService
	logger          *slog.Logger
	providerTimeout time.Duration
	ledger          Ledger
	now             func() time.Time
}

func NewPurchaseService(db repository.Database, provider vtu.Provider, notifier Notifier, beneficiaries *BeneficiaryService, logger *slog.Logger, providerTimeout time.Duration) *PurchaseService {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}

	return &PurchaseService{
		db:              db,
		provider:        provider,
		notifier:        notifier,
		beneficiaries:   beneficiaries,
		logger:          logger,
		providerTimeout: providerTimeout,
		now:             time.Now,
	}
}

type resolvedOrder struct {
	fulfilment fulfilment
	provider   *models.Provider
	pkg        *models.ServicePackage
	amount     decimal.Decimal
}

// resolve validates the request against the catalog. Nothing is written.
func (s *PurchaseService) resolve(ctx context.Context, req PurchaseRequest) (*resolvedOrder, error) {
	f, ok := fulfilments[req.Service]
	if !ok {
		return nil, ErrInvalidService
	}

	if strings.TrimSpace(req.Recipient) == "" {
		return nil, ErrInvalidRecipient
	}

	if req.Service == models.ServiceElectricity && !validMeterType(req.MeterType) {
		return nil, ErrInvalidMeterType
	}

	provider, found, err := s.db.Catalog().GetProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !found || !provider.IsActive || provider.ServiceType != req.Service {
		return nil, ErrInvalidProvider
	}

	resolved := &resolvedOrder{fulfilment: f, provider: provider, amount: req.Amount}

	if f.needsPackage {
		pkg, found, err := s.db.Catalog().GetPackage(ctx, req.PackageID)
		if err != nil {
			return nil, err
		}
		if !found || !pkg.IsActive || pkg.ProviderID != provider.ID {
			return nil, ErrInvalidPackage
		}
		resolved.pkg = pkg
		resolved.amount = pkg.Price
	}

	if !validAmount(resolved.amount) {
		return nil, ErrInvalidAmount
	}

	return resolved, nil
}

func validMeterType(meterType string) bool {
	return meterType == "prepaid" || meterType == "postpaid"
}

// Purchase reserves funds, asks the aggregator to deliver and settles the
// transaction on the verdict. A declined order is refunded before the
// *ProviderError is returned.
//
// When the reference derived from the idempotency key already exists the
// existing transaction is returned together with ErrDuplicateReference.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*models.Transaction, error) {
	// Step 1: validate against the catalog before touching money
	resolved, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
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

	// Step 2: the reference exists before any external call
	reference := NewReference(resolved.fulfilment.txType, req.UserID, req.IdempotencyKey)

	o := order{
		providerCode: resolved.provider.Code,
		recipient:    req.Recipient,
		phone:        req.Phone,
		meterType:    req.MeterType,
		amount:       resolved.amount,
		reference:    reference,
	}
	if resolved.pkg != nil {
		o.packageCode = resolved.pkg.Code
	}

	metadata, err := json.Marshal(purchaseMetadata(req, resolved))
	if err != nil {
		return nil, err
	}

	// Step 3: record the intent and reserve funds in one unit of work. An
	// insufficient balance rolls back the insert too.
	var tx *models.Transaction
	err = s.db.WithinTx(ctx, func(db repository.Database) error {
		tx, err = db.Transaction().Create(ctx, &models.Transaction{
			UserID:    req.UserID,
			WalletID:  wallet.ID,
			Type:      resolved.fulfilment.txType,
			Amount:    resolved.amount,
			Reference: reference,
			Provider:  resolved.provider.Name,
			Recipient: req.Recipient,
			Metadata:  metadata,
		})
		if err != nil {
			return err
		}

		_, err = s.ledger.Reserve(ctx, db, wallet.ID, tx.ID, tx.Amount)
		return err
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

	// From here on the debit has happened: the order runs to completion or
	// compensation regardless of the caller going away.
	ctx = context.WithoutCancel(ctx)

	// Step 4: call the aggregator without holding any lock
	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	outcome := resolved.fulfilment.deliver(callCtx, s.provider, o)
	cancel()

	// Step 5: settle on the verdict
	settled, changed, err := s.settle(ctx, tx, outcome, models.FailureReasonProviderDeclined)
	if err != nil {
		s.logger.Error("purchase left pending after provider call",
			"reference", reference,
			"provider_success", outcome.Success,
			"error", err.Error(),
		)
		return nil, err
	}

	if changed && settled.Status == models.TransactionStatusCompleted && req.SaveBeneficiary && s.beneficiaries != nil {
		s.beneficiaries.SaveFromPurchase(ctx, req, resolved.provider)
	}

	if settled.Status == models.TransactionStatusFailed {
		s.logger.Warn("provider declined purchase", "reference", reference, "message", outcome.Message)
		return settled, &ProviderError{Reference: reference, Message: outcome.Message}
	}

	return settled, nil
}

// settle finalizes a pending purchase: completed on a successful outcome,
// failed and refunded otherwise. changed is false when another path already
// settled the transaction, in which case the stored state wins.
func (s *PurchaseService) settle(ctx context.Context, tx *models.Transaction, outcome vtu.Outcome, failureReason string) (*models.Transaction, bool, error) {
	var settled *models.Transaction
	var changed bool

	err := s.db.WithinTx(ctx, func(db repository.Database) error {
		var err error

		if outcome.Success {
			settled, changed, err = db.Transaction().TransitionTo(ctx, tx.ID, models.TransactionStatusCompleted, models.TransactionPatch{
				ProviderResponse: outcome.JSON(),
				CompletedAt:      s.now(),
			})
			return err
		}

		settled, changed, err = db.Transaction().TransitionTo(ctx, tx.ID, models.TransactionStatusFailed, models.TransactionPatch{
			ProviderResponse: outcome.JSON(),
			FailureReason:    failureReason,
		})
		if err != nil || !changed {
			return err
		}

		_, _, err = s.ledger.Refund(ctx, db, tx.WalletID, tx.ID, tx.Amount)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("settle %s: %w", tx.Reference, err)
	}

	if changed && s.notifier != nil {
		s.notifier.TransactionSettled(ctx, settled)
	}

	return settled, changed, nil
}

func purchaseMetadata(req PurchaseRequest, resolved *resolvedOrder) map[string]any {
	metadata := map[string]any{
		"service":       req.Service,
		"provider_id":   resolved.provider.ID,
		"provider_code": resolved.provider.Code,
	}
	if resolved.pkg != nil {
		metadata["package_id"] = resolved.pkg.ID
		metadata["package_code"] = resolved.pkg.Code
		metadata["package_name"] = resolved.pkg.Name
	}
	if req.Phone != "" {
		metadata["phone"] = req.Phone
	}
	if req.MeterType != "" {
		metadata["meter_type"] = req.MeterType
	}
	return metadata
}

// VerifyMeter looks up a meter with the aggregator. No money moves.
func (s *PurchaseService) VerifyMeter(ctx context.Context, providerID, meterNumber, meterType string) (vtu.Outcome, error) {
	if !validMeterType(meterType) {
		return vtu.Outcome{}, ErrInvalidMeterType
	}

	return s.lookup(ctx, models.ServiceElectricity, providerID, meterNumber, func(ctx context.Context, code string) vtu.Outcome {
		return s.provider.VerifyMeter(ctx, code, meterNumber, meterType)
	})
}

// VerifySmartCard looks up a cable smart card with the aggregator.
func (s *PurchaseService) VerifySmartCard(ctx context.Context, providerID, smartCardNumber string) (vtu.Outcome, error) {
	return s.lookup(ctx, models.ServiceCable, providerID, smartCardNumber, func(ctx context.Context, code string) vtu.Outcome {
		return s.provider.VerifySmartCard(ctx, code, smartCardNumber)
	})
}

func (s *PurchaseService) lookup(ctx context.Context, service models.ServiceType, providerID, identifier string, call func(ctx context.Context, code string) vtu.Outcome) (vtu.Outcome, error) {
	if strings.TrimSpace(identifier) == "" {
		return vtu.Outcome{}, ErrInvalidRecipient
	}

	provider, found, err := s.db.Catalog().GetProvider(ctx, providerID)
	if err != nil {
		return vtu.Outcome{}, err
	}
	if !found || !provider.IsActive || provider.ServiceType != service {
		return vtu.Outcome{}, ErrInvalidProvider
	}

	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	outcome := call(callCtx, provider.Code)
	if !outcome.Success {
		return outcome, &ProviderError{Reference: identifier, Message: outcome.Message}
	}

	return outcome, nil
}
