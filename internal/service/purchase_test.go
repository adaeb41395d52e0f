package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/vtu"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPurchase_AirtimeSuccess(t *testing.T) {
	f := newFixture(t, "1000")

	f.provider.On("PurchaseAirtime", mock.Anything, "MTN", "08031234567",
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec("100")) }),
		mock.AnythingOfType("string"),
	).Return(vtu.Outcome{Success: true, Message: "Airtime delivered"}).Once()

	tx, err := f.purchases.Purchase(context.Background(), f.airtime("100"))
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, models.TransactionTypeAirtimePurchase, tx.Type)
	assert.True(t, tx.CompletedAt.Valid)
	assert.Contains(t, string(tx.ProviderResponse.JSONText), "Airtime delivered")
	assert.Regexp(t, `^PV-AIR-[0-9A-F]{24}$`, tx.Reference)

	f.assertBalance(t, "900")
	assert.Equal(t, []models.LedgerEntryType{models.LedgerEntryDebit}, entryTypes(f.db.Entries(tx.ID)))

	settled := f.notifier.Settled()
	require.Len(t, settled, 1)
	assert.Equal(t, tx.ID, settled[0].ID)

	f.provider.AssertExpectations(t)
}

func TestPurchase_ProviderDeclinedRefunds(t *testing.T) {
	f := newFixture(t, "1000")

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: false, Message: "Invalid phone number"})

	tx, err := f.purchases.Purchase(context.Background(), f.airtime("100"))

	var providerErr *ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "Invalid phone number", providerErr.Message)

	require.NotNil(t, tx)
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	assert.Equal(t, models.FailureReasonProviderDeclined, tx.FailureReason)

	f.assertBalance(t, "1000")
	assert.ElementsMatch(t,
		[]models.LedgerEntryType{models.LedgerEntryDebit, models.LedgerEntryRefund},
		entryTypes(f.db.Entries(tx.ID)),
	)
	assert.Len(t, f.notifier.Settled(), 1)
}

func TestPurchase_InsufficientBalanceLeavesNoTrace(t *testing.T) {
	f := newFixture(t, "50")

	_, err := f.purchases.Purchase(context.Background(), f.airtime("100"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	f.assertBalance(t, "50")
	assert.Empty(t, f.db.Transactions())
	f.provider.AssertNotCalled(t, "PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_Validation(t *testing.T) {
	f := newFixture(t, "100000")
	other := f.db.SeedPackage(f.dstv.ID, "DSTV-PADI", dec("2500"))

	tests := []struct {
		name    string
		mutate  func(r *PurchaseRequest)
		wantErr error
	}{
		{
			name:    "unknown service",
			mutate:  func(r *PurchaseRequest) { r.Service = "insurance" },
			wantErr: ErrInvalidService,
		},
		{
			name:    "blank recipient",
			mutate:  func(r *PurchaseRequest) { r.Recipient = "  " },
			wantErr: ErrInvalidRecipient,
		},
		{
			name:    "unknown provider",
			mutate:  func(r *PurchaseRequest) { r.ProviderID = "missing" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "provider of another service",
			mutate:  func(r *PurchaseRequest) { r.ProviderID = f.dstv.ID },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "zero amount",
			mutate:  func(r *PurchaseRequest) { r.Amount = decimal.Zero },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(r *PurchaseRequest) { r.Amount = dec("-10") },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "fraction of a kobo",
			mutate:  func(r *PurchaseRequest) { r.Amount = dec("1.005") },
			wantErr: ErrInvalidAmount,
		},
		{
			name: "electricity without meter type",
			mutate: func(r *PurchaseRequest) {
				r.Service = models.ServiceElectricity
				r.ProviderID = f.ikedc.ID
			},
			wantErr: ErrInvalidMeterType,
		},
		{
			name: "data without package",
			mutate: func(r *PurchaseRequest) {
				r.Service = models.ServiceData
				r.ProviderID = f.mtnData.ID
			},
			wantErr: ErrInvalidPackage,
		},
		{
			name: "package of another provider",
			mutate: func(r *PurchaseRequest) {
				r.Service = models.ServiceData
				r.ProviderID = f.mtnData.ID
				r.PackageID = other.ID
			},
			wantErr: ErrInvalidPackage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.airtime("100")
			tt.mutate(&req)

			_, err := f.purchases.Purchase(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, f.db.Transactions())
	f.assertBalance(t, "100000")
}

func TestPurchase_PackageServicesChargePackagePrice(t *testing.T) {
	f := newFixture(t, "20000")

	f.provider.On("PurchaseData", mock.Anything, "MTN", "08031234567", "MTN-1GB", mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})
	f.provider.On("SubscribeCable", mock.Anything, "DSTV", "7012345678", "DSTV-COMPACT", "08031234567", mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})

	data, err := f.purchases.Purchase(context.Background(), PurchaseRequest{
		UserID:     f.user.ID,
		Service:    models.ServiceData,
		ProviderID: f.mtnData.ID,
		PackageID:  f.dataPlan.ID,
		Amount:     dec("1"),
		Recipient:  "08031234567",
	})
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(data.Amount))
	assert.Equal(t, models.TransactionTypeDataPurchase, data.Type)

	cable, err := f.purchases.Purchase(context.Background(), PurchaseRequest{
		UserID:     f.user.ID,
		Service:    models.ServiceCable,
		ProviderID: f.dstv.ID,
		PackageID:  f.compact.ID,
		Recipient:  "7012345678",
		Phone:      "08031234567",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCableSubscription, cable.Type)
	assert.Contains(t, string(cable.Metadata), "DSTV-COMPACT")

	f.assertBalance(t, "7200")
	f.provider.AssertExpectations(t)
}

func TestPurchase_Electricity(t *testing.T) {
	f := newFixture(t, "10000")

	f.provider.On("PayElectricity", mock.Anything, "IKEDC", "45012345678", "prepaid", mock.Anything, "08031234567", mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "Token: 1234-5678"})

	tx, err := f.purchases.Purchase(context.Background(), PurchaseRequest{
		UserID:     f.user.ID,
		Service:    models.ServiceElectricity,
		ProviderID: f.ikedc.ID,
		Amount:     dec("5000"),
		Recipient:  "45012345678",
		Phone:      "08031234567",
		MeterType:  "prepaid",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeElectricityPayment, tx.Type)
	assert.Regexp(t, `^PV-ELE-`, tx.Reference)
	f.assertBalance(t, "5000")
}

func TestPurchase_IdempotencyKeyReplaysExisting(t *testing.T) {
	f := newFixture(t, "1000")

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"}).Once()

	req := f.airtime("100")
	req.IdempotencyKey = "checkout-42"

	first, err := f.purchases.Purchase(context.Background(), req)
	require.NoError(t, err)

	second, err := f.purchases.Purchase(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateReference)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.TransactionStatusCompleted, second.Status)

	f.assertBalance(t, "900")
	assert.Len(t, f.db.Transactions(), 1)
	f.provider.AssertNumberOfCalls(t, "PurchaseAirtime", 1)
}

func TestPurchase_ConcurrentPurchasesNeverOverdraw(t *testing.T) {
	f := newFixture(t, "500")

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})

	const attempts = 12

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.purchases.Purchase(context.Background(), f.airtime("100"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, attempts-5, insufficient)
	f.assertBalance(t, "0")
	assert.Len(t, f.db.Transactions(), 5)
}

func TestPurchase_MixedOutcomesConserveMoney(t *testing.T) {
	f := newFixture(t, "1000")

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, "08030000001", mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})
	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, "08030000002", mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: false, Message: "Service provider unavailable: timeout"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			req := f.airtime("50")
			req.Recipient = "08030000001"
			if i%2 == 1 {
				req.Recipient = "08030000002"
			}
			_, _ = f.purchases.Purchase(context.Background(), req)
		}(i)
	}
	wg.Wait()

	// four delivered, four refunded
	f.assertBalance(t, "800")

	for _, tx := range f.db.Transactions() {
		entries := entryTypes(f.db.Entries(tx.ID))
		switch tx.Status {
		case models.TransactionStatusCompleted:
			assert.Equal(t, []models.LedgerEntryType{models.LedgerEntryDebit}, entries)
		case models.TransactionStatusFailed:
			assert.ElementsMatch(t, []models.LedgerEntryType{models.LedgerEntryDebit, models.LedgerEntryRefund}, entries)
		default:
			t.Errorf("transaction %s left %s", tx.Reference, tx.Status)
		}
	}
}

func TestPurchase_SettleFailureLeavesPendingDebit(t *testing.T) {
	f := newFixture(t, "1000")

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})
	f.db.FailOn("Transaction.TransitionTo", errors.New("connection reset"))

	_, err := f.purchases.Purchase(context.Background(), f.airtime("100"))
	require.Error(t, err)

	txs := f.db.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionStatusPending, txs[0].Status)
	f.assertBalance(t, "900")
	assert.Empty(t, f.notifier.Settled())
}

func TestPurchase_CancelledCallerStillSettles(t *testing.T) {
	f := newFixture(t, "1000")

	ctx, cancel := context.WithCancel(context.Background())

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(vtu.Outcome{Success: false, Message: "declined"})

	tx, err := f.purchases.Purchase(ctx, f.airtime("100"))

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	f.assertBalance(t, "1000")
}

func TestPurchase_SavesBeneficiaryOnSuccess(t *testing.T) {
	f := newFixture(t, "1000")

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})

	req := f.airtime("100")
	req.SaveBeneficiary = true
	req.BeneficiaryName = "Mum"

	_, err := f.purchases.Purchase(context.Background(), req)
	require.NoError(t, err)

	saved, err := f.beneficiaries.List(context.Background(), f.user.ID, models.ServiceAirtime)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Mum", saved[0].Name)
	assert.Equal(t, "08031234567", saved[0].Identifier)
	assert.Equal(t, f.mtn.ID, saved[0].ProviderID)

	// saving again keeps a single row
	_, err = f.purchases.Purchase(context.Background(), req)
	require.NoError(t, err)

	saved, err = f.beneficiaries.List(context.Background(), f.user.ID, "")
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	require.NoError(t, f.beneficiaries.Delete(context.Background(), f.user.ID, saved[0].ID))
	assert.ErrorIs(t, f.beneficiaries.Delete(context.Background(), f.user.ID, saved[0].ID), ErrBeneficiaryNotFound)
}

func TestPurchase_InactiveWallet(t *testing.T) {
	f := newFixture(t, "1000")
	f.db.HoldWallet(f.wallet.ID)

	_, err := f.purchases.Purchase(context.Background(), f.airtime("100"))
	assert.ErrorIs(t, err, ErrWalletInactive)
}

func TestVerifyMeter(t *testing.T) {
	f := newFixture(t, "0")

	f.provider.On("VerifyMeter", mock.Anything, "IKEDC", "45012345678", "prepaid").
		Return(vtu.Outcome{Success: true, Message: "Meter verified", Data: []byte(`{"customer_name":"ADA OBI"}`)})
	f.provider.On("VerifyMeter", mock.Anything, "IKEDC", "000", "postpaid").
		Return(vtu.Outcome{Success: false, Message: "Meter not found"})

	outcome, err := f.purchases.VerifyMeter(context.Background(), f.ikedc.ID, "45012345678", "prepaid")
	require.NoError(t, err)
	assert.JSONEq(t, `{"customer_name":"ADA OBI"}`, string(outcome.Data))

	_, err = f.purchases.VerifyMeter(context.Background(), f.ikedc.ID, "000", "postpaid")
	var providerErr *ProviderError
	assert.ErrorAs(t, err, &providerErr)

	_, err = f.purchases.VerifyMeter(context.Background(), f.ikedc.ID, "45012345678", "smart")
	assert.ErrorIs(t, err, ErrInvalidMeterType)

	_, err = f.purchases.VerifySmartCard(context.Background(), f.ikedc.ID, "7012345678")
	assert.ErrorIs(t, err, ErrInvalidProvider)

	assert.Empty(t, f.db.Transactions())
}
