package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// MemoryDatabase is an in-memory repository.Database. Units of work are
// serialized and rolled back by restoring a snapshot, which mirrors the
// row locking the postgres implementation relies on.
type MemoryDatabase struct {
	mu      sync.Mutex
	st      *store
	faults  map[string]error
	lookups int
}

type store struct {
	users         map[string]models.User
	wallets       map[string]models.Wallet
	transactions  map[string]models.Transaction
	entries       []models.LedgerEntry
	providers     map[string]models.Provider
	packages      map[string]models.ServicePackage
	beneficiaries map[string]models.Beneficiary
	schedules     map[string]models.ScheduledPayment
	activities    []models.ActivityLog
}

func newStore() *store {
	return &store{
		users:         map[string]models.User{},
		wallets:       map[string]models.Wallet{},
		transactions:  map[string]models.Transaction{},
		providers:     map[string]models.Provider{},
		packages:      map[string]models.ServicePackage{},
		beneficiaries: map[string]models.Beneficiary{},
		schedules:     map[string]models.ScheduledPayment{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *store) clone() *store {
	return &store{
		users:         cloneMap(s.users),
		wallets:       cloneMap(s.wallets),
		transactions:  cloneMap(s.transactions),
		entries:       append([]models.LedgerEntry(nil), s.entries...),
		providers:     cloneMap(s.providers),
		packages:      cloneMap(s.packages),
		beneficiaries: cloneMap(s.beneficiaries),
		schedules:     cloneMap(s.schedules),
		activities:    append([]models.ActivityLog(nil), s.activities...),
	}
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{st: newStore(), faults: map[string]error{}}
}

// FailOn makes every call of the named operation (e.g. "Transaction.TransitionTo")
// return err until cleared with a nil err.
func (m *MemoryDatabase) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = err
}

func (m *MemoryDatabase) root() *memView {
	return &memView{db: m}
}

func (m *MemoryDatabase) User() repository.UserRepository {
	return m.root().User()
}
func (m *MemoryDatabase) Activity() repository.ActivityRepository {
	return m.root().Activity()
}
func (m *MemoryDatabase) Wallet() repository.WalletRepository {
	return m.root().Wallet()
}
func (m *MemoryDatabase) LedgerEntry() repository.LedgerEntryRepository {
	return m.root().LedgerEntry()
}
func (m *MemoryDatabase) Transaction() repository.TransactionRepository {
	return m.root().Transaction()
}
func (m *MemoryDatabase) Catalog() repository.CatalogRepository {
	return m.root().Catalog()
}
func (m *MemoryDatabase) Beneficiary() repository.BeneficiaryRepository {
	return m.root().Beneficiary()
}
func (m *MemoryDatabase) ScheduledPayment() repository.ScheduledPaymentRepository {
	return m.root().ScheduledPayment()
}

func (m *MemoryDatabase) WithinTx(ctx context.Context, fn func(tx repository.Database) error) error {
	return m.root().WithinTx(ctx, fn)
}

func (m *MemoryDatabase) Close() error {
	return nil
}

// memView is the Database handed to repository callers; inside a unit of
// work the lock is already held.
type memView struct {
	db   *MemoryDatabase
	inTx bool
}

func (v *memView) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.db.mu.Lock()
	return v.db.mu.Unlock
}

func (v *memView) fault(op string) error {
	return v.db.faults[op]
}

func (v *memView) st() *store { return v.db.st }

func (v *memView) User() repository.UserRepository {
	return &memUsers{v}
}
func (v *memView) Activity() repository.ActivityRepository {
	return &memActivities{v}
}
func (v *memView) Wallet() repository.WalletRepository {
	return &memWallets{v}
}
func (v *memView) LedgerEntry() repository.LedgerEntryRepository {
	return &memEntries{v}
}
func (v *memView) Transaction() repository.TransactionRepository {
	return &memTransactions{v}
}
func (v *memView) Catalog() repository.CatalogRepository {
	return &memCatalog{v}
}
func (v *memView) Beneficiary() repository.BeneficiaryRepository {
	return &memBeneficiaries{v}
}
func (v *memView) ScheduledPayment() repository.ScheduledPaymentRepository {
	return &memSchedules{v}
}

func (v *memView) WithinTx(ctx context.Context, fn func(tx repository.Database) error) error {
	if v.inTx {
		return fn(v)
	}

	v.db.mu.Lock()
	defer v.db.mu.Unlock()

	if err := v.fault("WithinTx"); err != nil {
		return err
	}

	snapshot := v.db.st.clone()
	if err := fn(&memView{db: v.db, inTx: true}); err != nil {
		v.db.st = snapshot
		return err
	}

	return nil
}

func (v *memView) Close() error {
	return nil
}

// ---- wallets ----

type memWallets struct{ v *memView }

func (r *memWallets) Insert(ctx context.Context, wallet *models.Wallet) (string, error) {
	defer r.v.lock()()

	for _, w := range r.v.st().wallets {
		if w.UserID == wallet.UserID {
			return "", repository.ErrDuplicateEntry
		}
	}

	w := *wallet
	w.ID = uuid.NewString()
	if w.Currency == "" {
		w.Currency = models.DefaultCurrency
	}
	if w.Status == "" {
		w.Status = models.WalletActiveStatus
	}
	w.CreatedAt = time.Now()
	r.v.st().wallets[w.ID] = w

	return w.ID, nil
}

func (r *memWallets) GetOne(ctx context.Context, id string) (*models.Wallet, bool, error) {
	defer r.v.lock()()

	w, ok := r.v.st().wallets[id]
	if !ok {
		return nil, false, nil
	}
	return &w, true, nil
}

func (r *memWallets) GetByUserID(ctx context.Context, userID string) (*models.Wallet, bool, error) {
	defer r.v.lock()()

	for _, w := range r.v.st().wallets {
		if w.UserID == userID {
			return &w, true, nil
		}
	}
	return nil, false, nil
}

func (r *memWallets) Debit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, bool, error) {
	defer r.v.lock()()

	if err := r.v.fault("Wallet.Debit"); err != nil {
		return nil, false, err
	}

	w, ok := r.v.st().wallets[walletID]
	if !ok {
		return nil, false, repository.ErrRecordNotFound
	}
	if w.Balance.LessThan(amount) {
		return &w, false, nil
	}

	w.Balance = w.Balance.Sub(amount)
	r.v.st().wallets[walletID] = w
	return &w, true, nil
}

func (r *memWallets) Credit(ctx context.Context, walletID string, amount decimal.Decimal) (*models.Wallet, error) {
	defer r.v.lock()()

	if err := r.v.fault("Wallet.Credit"); err != nil {
		return nil, err
	}

	w, ok := r.v.st().wallets[walletID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}

	w.Balance = w.Balance.Add(amount)
	r.v.st().wallets[walletID] = w
	return &w, nil
}

// ---- ledger entries ----

type memEntries struct{ v *memView }

func (r *memEntries) Insert(ctx context.Context, entry *models.LedgerEntry) (string, error) {
	defer r.v.lock()()

	for _, e := range r.v.st().entries {
		if e.TransactionID == entry.TransactionID && e.EntryType == entry.EntryType {
			return "", repository.ErrDuplicateEntry
		}
	}

	e := *entry
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	r.v.st().entries = append(r.v.st().entries, e)
	return e.ID, nil
}

func (r *memEntries) Exists(ctx context.Context, transactionID string, entryType models.LedgerEntryType) (bool, error) {
	defer r.v.lock()()

	for _, e := range r.v.st().entries {
		if e.TransactionID == transactionID && e.EntryType == entryType {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEntries) ListByTransaction(ctx context.Context, transactionID string) ([]models.LedgerEntry, error) {
	defer r.v.lock()()

	entries := []models.LedgerEntry{}
	for _, e := range r.v.st().entries {
		if e.TransactionID == transactionID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ---- transactions ----

type memTransactions struct{ v *memView }

func (r *memTransactions) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	defer r.v.lock()()

	if err := r.v.fault("Transaction.Create"); err != nil {
		return nil, err
	}

	for _, t := range r.v.st().transactions {
		if t.Reference == tx.Reference {
			return nil, repository.ErrDuplicateReference
		}
		if tx.GatewayReference.Valid && t.GatewayReference.Valid && t.GatewayReference.String == tx.GatewayReference.String {
			return nil, repository.ErrDuplicateReference
		}
	}

	t := *tx
	t.ID = uuid.NewString()
	t.Status = models.TransactionStatusPending
	if len(t.Metadata) == 0 {
		t.Metadata = types.JSONText("{}")
	}
	t.CreatedAt = time.Now()
	r.v.st().transactions[t.ID] = t

	return &t, nil
}

func (r *memTransactions) GetOne(ctx context.Context, id string) (*models.Transaction, bool, error) {
	defer r.v.lock()()

	t, ok := r.v.st().transactions[id]
	if !ok {
		return nil, false, nil
	}
	return &t, true, nil
}

func (r *memTransactions) GetForUpdate(ctx context.Context, id string) (*models.Transaction, error) {
	defer r.v.lock()()

	t, ok := r.v.st().transactions[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &t, nil
}

func (r *memTransactions) FindByReference(ctx context.Context, reference string) (*models.Transaction, bool, error) {
	defer r.v.lock()()

	for _, t := range r.v.st().transactions {
		if t.Reference == reference {
			return &t, true, nil
		}
	}
	return nil, false, nil
}

func (r *memTransactions) FindByGatewayReference(ctx context.Context, gatewayReference string) (*models.Transaction, bool, error) {
	defer r.v.lock()()

	r.v.db.lookups++

	for _, t := range r.v.st().transactions {
		if t.GatewayReference.Valid && t.GatewayReference.String == gatewayReference {
			return &t, true, nil
		}
	}
	return nil, false, nil
}

func (r *memTransactions) TransitionTo(ctx context.Context, id string, status models.TransactionStatus, patch models.TransactionPatch) (*models.Transaction, bool, error) {
	defer r.v.lock()()

	if err := r.v.fault("Transaction.TransitionTo"); err != nil {
		return nil, false, err
	}

	t, ok := r.v.st().transactions[id]
	if !ok {
		return nil, false, repository.ErrRecordNotFound
	}
	if t.Status != models.TransactionStatusPending {
		return &t, false, nil
	}

	t.Status = status
	if len(patch.ProviderResponse) > 0 {
		t.ProviderResponse = types.NullJSONText{JSONText: types.JSONText(patch.ProviderResponse), Valid: true}
	}
	if !patch.CompletedAt.IsZero() {
		t.CompletedAt.Time, t.CompletedAt.Valid = patch.CompletedAt, true
	}
	if patch.GatewayReference != "" && !t.GatewayReference.Valid {
		t.GatewayReference.String, t.GatewayReference.Valid = patch.GatewayReference, true
	}
	if patch.FailureReason != "" {
		t.FailureReason = patch.FailureReason
	}
	t.UpdatedAt.Time, t.UpdatedAt.Valid = time.Now(), true

	r.v.st().transactions[id] = t
	return &t, true, nil
}

func (r *memTransactions) SetAuthorization(ctx context.Context, id, gatewayReference, authorizationURL string) (*models.Transaction, error) {
	defer r.v.lock()()

	t, ok := r.v.st().transactions[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}

	if gatewayReference != "" && !t.GatewayReference.Valid {
		for _, other := range r.v.st().transactions {
			if other.ID != id && other.GatewayReference.Valid && other.GatewayReference.String == gatewayReference {
				return nil, repository.ErrDuplicateReference
			}
		}
		t.GatewayReference.String, t.GatewayReference.Valid = gatewayReference, true
	}
	if authorizationURL != "" {
		t.AuthorizationURL.String, t.AuthorizationURL.Valid = authorizationURL, true
	}

	r.v.st().transactions[id] = t
	return &t, nil
}

func (r *memTransactions) ListByUser(ctx context.Context, userID string, filter repository.TransactionFilter) ([]models.Transaction, int, error) {
	defer r.v.lock()()

	matched := []models.Transaction{}
	for _, t := range r.v.st().transactions {
		if t.UserID != userID {
			continue
		}
		if filter.Type != "" && string(t.Type) != filter.Type {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	page, perPage := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], len(matched), nil
}

func (r *memTransactions) DailyBuckets(ctx context.Context, userID string) ([]models.TransactionBucket, error) {
	defer r.v.lock()()

	type key struct {
		txType models.TransactionType
		status models.TransactionStatus
		day    time.Time
	}

	index := map[key]int{}
	buckets := []models.TransactionBucket{}
	for _, t := range r.v.st().transactions {
		if t.UserID != userID {
			continue
		}

		k := key{t.Type, t.Status, t.CreatedAt.UTC().Truncate(24 * time.Hour)}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, models.TransactionBucket{Type: k.txType, Status: k.status, Day: k.day, Total: decimal.Zero})
		}
		buckets[i].Count++
		buckets[i].Total = buckets[i].Total.Add(t.Amount)
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Day.Before(buckets[j].Day) })
	return buckets, nil
}

func (r *memTransactions) ListStalePending(ctx context.Context, txTypes []models.TransactionType, olderThan time.Time, limit int) ([]models.Transaction, error) {
	defer r.v.lock()()

	wanted := map[models.TransactionType]bool{}
	for _, t := range txTypes {
		wanted[t] = true
	}

	stale := []models.Transaction{}
	for _, t := range r.v.st().transactions {
		if t.Status == models.TransactionStatusPending && wanted[t.Type] && t.CreatedAt.Before(olderThan) {
			stale = append(stale, t)
		}
	}

	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (r *memTransactions) ListUncreditedFunding(ctx context.Context, limit int) ([]models.Transaction, error) {
	defer r.v.lock()()

	credited := map[string]bool{}
	for _, e := range r.v.st().entries {
		if e.EntryType == models.LedgerEntryCredit {
			credited[e.TransactionID] = true
		}
	}

	uncredited := []models.Transaction{}
	for _, t := range r.v.st().transactions {
		if t.Type == models.TransactionTypeWalletFunding && t.Status == models.TransactionStatusCompleted && !credited[t.ID] {
			uncredited = append(uncredited, t)
		}
	}

	if len(uncredited) > limit {
		uncredited = uncredited[:limit]
	}
	return uncredited, nil
}

// ---- catalog ----

type memCatalog struct{ v *memView }

func (r *memCatalog) InsertProvider(ctx context.Context, provider *models.Provider) (string, error) {
	defer r.v.lock()()

	for _, p := range r.v.st().providers {
		if p.Code == provider.Code && p.ServiceType == provider.ServiceType {
			return p.ID, nil
		}
	}

	p := *provider
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	r.v.st().providers[p.ID] = p
	return p.ID, nil
}

func (r *memCatalog) InsertPackage(ctx context.Context, pkg *models.ServicePackage) (string, error) {
	defer r.v.lock()()

	for _, p := range r.v.st().packages {
		if p.ProviderID == pkg.ProviderID && p.Code == pkg.Code {
			return p.ID, nil
		}
	}

	p := *pkg
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	r.v.st().packages[p.ID] = p
	return p.ID, nil
}

func (r *memCatalog) GetProvider(ctx context.Context, id string) (*models.Provider, bool, error) {
	defer r.v.lock()()

	p, ok := r.v.st().providers[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (r *memCatalog) FindProviderByCode(ctx context.Context, serviceType models.ServiceType, code string) (*models.Provider, bool, error) {
	defer r.v.lock()()

	for _, p := range r.v.st().providers {
		if p.ServiceType == serviceType && p.Code == code {
			return &p, true, nil
		}
	}
	return nil, false, nil
}

func (r *memCatalog) ListProviders(ctx context.Context, serviceType models.ServiceType) ([]models.Provider, error) {
	defer r.v.lock()()

	providers := []models.Provider{}
	for _, p := range r.v.st().providers {
		if p.ServiceType == serviceType && p.IsActive {
			providers = append(providers, p)
		}
	}
	return providers, nil
}

func (r *memCatalog) GetPackage(ctx context.Context, id string) (*models.ServicePackage, bool, error) {
	defer r.v.lock()()

	p, ok := r.v.st().packages[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (r *memCatalog) ListPackages(ctx context.Context, providerID string) ([]models.ServicePackage, error) {
	defer r.v.lock()()

	packages := []models.ServicePackage{}
	for _, p := range r.v.st().packages {
		if p.ProviderID == providerID && p.IsActive {
			packages = append(packages, p)
		}
	}
	return packages, nil
}

// ---- beneficiaries ----

type memBeneficiaries struct{ v *memView }

func (r *memBeneficiaries) Upsert(ctx context.Context, beneficiary *models.Beneficiary) (*models.Beneficiary, error) {
	defer r.v.lock()()

	for id, b := range r.v.st().beneficiaries {
		if b.UserID == beneficiary.UserID && b.ServiceType == beneficiary.ServiceType && b.Identifier == beneficiary.Identifier {
			b.ProviderID = beneficiary.ProviderID
			if beneficiary.Name != "" {
				b.Name = beneficiary.Name
			}
			b.Metadata = beneficiary.Metadata
			r.v.st().beneficiaries[id] = b
			return &b, nil
		}
	}

	b := *beneficiary
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	r.v.st().beneficiaries[b.ID] = b
	return &b, nil
}

func (r *memBeneficiaries) ListByUser(ctx context.Context, userID string, serviceType models.ServiceType) ([]models.Beneficiary, error) {
	defer r.v.lock()()

	list := []models.Beneficiary{}
	for _, b := range r.v.st().beneficiaries {
		if b.UserID == userID && (serviceType == "" || b.ServiceType == serviceType) {
			list = append(list, b)
		}
	}
	return list, nil
}

func (r *memBeneficiaries) Delete(ctx context.Context, id, userID string) (bool, error) {
	defer r.v.lock()()

	b, ok := r.v.st().beneficiaries[id]
	if !ok || b.UserID != userID {
		return false, nil
	}
	delete(r.v.st().beneficiaries, id)
	return true, nil
}

// ---- scheduled payments ----

type memSchedules struct{ v *memView }

func (r *memSchedules) Insert(ctx context.Context, sp *models.ScheduledPayment) (*models.ScheduledPayment, error) {
	defer r.v.lock()()

	s := *sp
	s.ID = uuid.NewString()
	s.Status = models.ScheduleStatusActive
	s.CreatedAt = time.Now()
	r.v.st().schedules[s.ID] = s
	return &s, nil
}

func (r *memSchedules) GetOne(ctx context.Context, id string) (*models.ScheduledPayment, bool, error) {
	defer r.v.lock()()

	s, ok := r.v.st().schedules[id]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (r *memSchedules) GetForUpdate(ctx context.Context, id string) (*models.ScheduledPayment, error) {
	defer r.v.lock()()

	s, ok := r.v.st().schedules[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return &s, nil
}

func (r *memSchedules) ListByUser(ctx context.Context, userID string) ([]models.ScheduledPayment, error) {
	defer r.v.lock()()

	list := []models.ScheduledPayment{}
	for _, s := range r.v.st().schedules {
		if s.UserID == userID {
			list = append(list, s)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].NextPaymentDate.Before(list[j].NextPaymentDate) })
	return list, nil
}

func (r *memSchedules) ListDue(ctx context.Context, asOf time.Time, limit int) ([]models.ScheduledPayment, error) {
	defer r.v.lock()()

	due := []models.ScheduledPayment{}
	for _, s := range r.v.st().schedules {
		if s.Status == models.ScheduleStatusActive && !s.NextPaymentDate.After(asOf) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextPaymentDate.Before(due[j].NextPaymentDate) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memSchedules) Update(ctx context.Context, sp *models.ScheduledPayment) error {
	defer r.v.lock()()

	if _, ok := r.v.st().schedules[sp.ID]; !ok {
		return repository.ErrRecordNotFound
	}
	s := *sp
	s.UpdatedAt.Time, s.UpdatedAt.Valid = time.Now(), true
	r.v.st().schedules[sp.ID] = s
	return nil
}

// ---- users ----

type memUsers struct{ v *memView }

func (r *memUsers) Insert(ctx context.Context, user *models.User) (string, error) {
	defer r.v.lock()()

	if err := r.v.fault("User.Insert"); err != nil {
		return "", err
	}

	for _, u := range r.v.st().users {
		if u.Email == user.Email {
			return "", repository.ErrDuplicateEntry
		}
		if u.PhoneNumber == user.PhoneNumber {
			return "", repository.ErrDuplicatePhoneNumber
		}
	}

	u := *user
	u.ID = uuid.NewString()
	if u.Status == "" {
		u.Status = repository.UserAccountActiveStatus
	}
	u.CreatedAt = time.Now()
	r.v.st().users[u.ID] = u
	return u.ID, nil
}

func (r *memUsers) GetOne(ctx context.Context, id string) (*models.User, bool, error) {
	defer r.v.lock()()

	if err := r.v.fault("User.GetOne"); err != nil {
		return nil, false, err
	}

	u, ok := r.v.st().users[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	defer r.v.lock()()

	for _, u := range r.v.st().users {
		if u.Email == email {
			return &u, true, nil
		}
	}
	return nil, false, nil
}

// ---- activity ----

type memActivities struct{ v *memView }

func (r *memActivities) Insert(ctx context.Context, log *models.ActivityLog) (*models.ActivityLog, error) {
	defer r.v.lock()()

	l := *log
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	r.v.st().activities = append(r.v.st().activities, l)
	return &l, nil
}

func (r *memActivities) ListByEntity(ctx context.Context, entity, entityID string) ([]models.ActivityLog, error) {
	defer r.v.lock()()

	logs := []models.ActivityLog{}
	for _, l := range r.v.st().activities {
		if l.Entity == entity && l.EntityId == entityID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}
