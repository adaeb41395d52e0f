package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cradoe/payvista/assets"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Activity() ActivityRepository
	Wallet() WalletRepository
	LedgerEntry() LedgerEntryRepository
	Transaction() TransactionRepository
	Catalog() CatalogRepository
	Beneficiary() BeneficiaryRepository
	ScheduledPayment() ScheduledPaymentRepository

	// WithinTx runs fn against repositories bound to a single database
	// transaction. The transaction is committed when fn returns nil and rolled
	// back otherwise. Calling WithinTx on a transactional Database reuses the
	// outer transaction.
	WithinTx(ctx context.Context, fn func(tx Database) error) error
	Close() error
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db   *sqlx.DB
	ext  sqlx.ExtContext
	inTx bool

	userRepo             UserRepository
	activityRepo         ActivityRepository
	walletRepo           WalletRepository
	ledgerEntryRepo      LedgerEntryRepository
	transactionRepo      TransactionRepository
	catalogRepo          CatalogRepository
	beneficiaryRepo      BeneficiaryRepository
	scheduledPaymentRepo ScheduledPaymentRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db, ext: db}, nil
}

func (d *DatabaseImpl) Close() error {
	if d.inTx {
		return nil
	}
	return d.db.Close()
}

func (d *DatabaseImpl) WithinTx(ctx context.Context, fn func(tx Database) error) error {
	if d.inTx {
		return fn(d)
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer tx.Rollback()

	if err := fn(&DatabaseImpl{db: d.db, ext: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.ext)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Activity() ActivityRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activityRepo == nil {
		d.activityRepo = NewActivityRepository(d.ext)
	}
	return d.activityRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.ext)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) LedgerEntry() LedgerEntryRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledgerEntryRepo == nil {
		d.ledgerEntryRepo = NewLedgerEntryRepository(d.ext)
	}
	return d.ledgerEntryRepo
}

func (d *DatabaseImpl) Transaction() TransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transactionRepo == nil {
		d.transactionRepo = NewTransactionRepository(d.ext)
	}
	return d.transactionRepo
}

func (d *DatabaseImpl) Catalog() CatalogRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.catalogRepo == nil {
		d.catalogRepo = NewCatalogRepository(d.ext)
	}
	return d.catalogRepo
}

func (d *DatabaseImpl) Beneficiary() BeneficiaryRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.beneficiaryRepo == nil {
		d.beneficiaryRepo = NewBeneficiaryRepository(d.ext)
	}
	return d.beneficiaryRepo
}

func (d *DatabaseImpl) ScheduledPayment() ScheduledPaymentRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.scheduledPaymentRepo == nil {
		d.scheduledPaymentRepo = NewScheduledPaymentRepository(d.ext)
	}
	return d.scheduledPaymentRepo
}
