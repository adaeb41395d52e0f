package mocks

import (
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedUser stores a user with an active wallet holding balance and returns
// both.
func (m *MemoryDatabase) SeedUser(balance decimal.Decimal) (models.User, models.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := models.User{
		ID:          uuid.NewString(),
		FirstName:   "Ada",
		LastName:    "Obi",
		Email:       uuid.NewString()[:8] + "@example.com",
		PhoneNumber: "080" + uuid.NewString()[:8],
		Status:      "active",
		CreatedAt:   time.Now(),
	}
	m.st.users[user.ID] = user

	wallet := models.Wallet{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Balance:   balance,
		Currency:  models.DefaultCurrency,
		Status:    models.WalletActiveStatus,
		CreatedAt: time.Now(),
	}
	m.st.wallets[wallet.ID] = wallet

	return user, wallet
}

func (m *MemoryDatabase) SeedProvider(serviceType models.ServiceType, code string) models.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := models.Provider{
		ID:          uuid.NewString(),
		Name:        code,
		Code:        code,
		ServiceType: serviceType,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	m.st.providers[p.ID] = p
	return p
}

func (m *MemoryDatabase) SeedPackage(providerID, code string, price decimal.Decimal) models.ServicePackage {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := models.ServicePackage{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Name:       code,
		Code:       code,
		Price:      price,
		Validity:   "30 days",
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	m.st.packages[p.ID] = p
	return p
}

// SeedTransaction stores tx as-is, keeping its status and timestamps.
func (m *MemoryDatabase) SeedTransaction(tx models.Transaction) models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	m.st.transactions[tx.ID] = tx
	return tx
}

// SeedEntry stores a ledger entry without touching the wallet balance.
func (m *MemoryDatabase) SeedEntry(entry models.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	m.st.entries = append(m.st.entries, entry)
}

func (m *MemoryDatabase) Age(transactionID string, age time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := m.st.transactions[transactionID]
	tx.CreatedAt = time.Now().Add(-age)
	m.st.transactions[transactionID] = tx
}

// HoldWallet puts the wallet on hold.
func (m *MemoryDatabase) HoldWallet(walletID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.st.wallets[walletID]
	w.Status = models.WalletOnHoldStatus
	m.st.wallets[walletID] = w
}

func (m *MemoryDatabase) Balance(walletID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.st.wallets[walletID].Balance
}

func (m *MemoryDatabase) Transactions() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]models.Transaction, 0, len(m.st.transactions))
	for _, tx := range m.st.transactions {
		list = append(list, tx)
	}
	return list
}

func (m *MemoryDatabase) Entries(transactionID string) []models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := []models.LedgerEntry{}
	for _, e := range m.st.entries {
		if e.TransactionID == transactionID {
			entries = append(entries, e)
		}
	}
	return entries
}

func (m *MemoryDatabase) Activities() []models.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.ActivityLog(nil), m.st.activities...)
}

// GatewayLookups counts FindByGatewayReference calls.
func (m *MemoryDatabase) GatewayLookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lookups
}
