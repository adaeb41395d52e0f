package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cradoe/payvista/internal/mocks"
	"github.com/cradoe/payvista/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	db       *mocks.MemoryDatabase
	provider *mocks.MockProvider
	notifier *mocks.MockNotifier

	purchases     *PurchaseService
	beneficiaries *BeneficiaryService

	user   models.User
	wallet models.Wallet

	mtn      models.Provider
	mtnData  models.Provider
	ikedc    models.Provider
	dstv     models.Provider
	dataPlan models.ServicePackage
	compact  models.ServicePackage
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()

	f := &fixture{
		db:       mocks.NewMemoryDatabase(),
		provider: &mocks.MockProvider{},
		notifier: &mocks.MockNotifier{},
	}

	f.user, f.wallet = f.db.SeedUser(dec(balance))

	f.mtn = f.db.SeedProvider(models.ServiceAirtime, "MTN")
	f.mtnData = f.db.SeedProvider(models.ServiceData, "MTN")
	f.ikedc = f.db.SeedProvider(models.ServiceElectricity, "IKEDC")
	f.dstv = f.db.SeedProvider(models.ServiceCable, "DSTV")
	f.dataPlan = f.db.SeedPackage(f.mtnData.ID, "MTN-1GB", dec("300"))
	f.compact = f.db.SeedPackage(f.dstv.ID, "DSTV-COMPACT", dec("12500"))

	f.beneficiaries = NewBeneficiaryService(f.db, testLogger)
	f.purchases = NewPurchaseService(f.db, f.provider, f.notifier, f.beneficiaries, testLogger, time.Second)

	return f
}

func (f *fixture) airtime(amount string) PurchaseRequest {
	return PurchaseRequest{
		UserID:     f.user.ID,
		Service:    models.ServiceAirtime,
		ProviderID: f.mtn.ID,
		Amount:     dec(amount),
		Recipient:  "08031234567",
	}
}

func (f *fixture) assertBalance(t *testing.T, want string) {
	t.Helper()

	got := f.db.Balance(f.wallet.ID)
	assert.True(t, dec(want).Equal(got), "balance: want %s, got %s", want, got.String())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entryTypes(entries []models.LedgerEntry) []models.LedgerEntryType {
	types := make([]models.LedgerEntryType, 0, len(entries))
	for _, e := range entries {
		types = append(types, e.EntryType)
	}
	return types
}
