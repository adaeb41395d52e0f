package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/shopspring/decimal"
)

type ScheduleRequest struct {
	UserID     string
	Service    models.ServiceType
	ProviderID string
	PackageID  string
	Amount     decimal.Decimal
	Recipient  string
	Phone      string
	MeterType  string
	Frequency  models.Frequency
	StartDate  time.Time
}

type scheduleMetadata struct {
	Phone     string `json:"phone,omitempty"`
	MeterType string `json:"meter_type,omitempty"`
}

// ScheduleService owns recurring payments. The external scheduler calls
// ProcessDue once per due item; each run is an ordinary purchase.
type ScheduleService struct {
	db          repository.Database
	purchases   *PurchaseService
	logger      *slog.Logger
	maxFailures int
	now         func() time.Time
}

func NewScheduleService(db repository.Database, purchases *PurchaseService, logger *slog.Logger, maxFailures int) *ScheduleService {
	if maxFailures <= 0 {
		maxFailures = 3
	}

	return &ScheduleService{
		db:          db,
		purchases:   purchases,
		logger:      logger,
		maxFailures: maxFailures,
		now:         time.Now,
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.ScheduledPayment, error) {
	if !req.Frequency.Valid() {
		return nil, ErrInvalidFrequency
	}

	startDate := truncateToDay(req.StartDate)
	if startDate.Before(truncateToDay(s.now())) {
		return nil, ErrStartDateInPast
	}

	// same validation a live purchase gets
	resolved, err := s.purchases.resolve(ctx, PurchaseRequest{
		UserID:     req.UserID,
		Service:    req.Service,
		ProviderID: req.ProviderID,
		PackageID:  req.PackageID,
		Amount:     req.Amount,
		Recipient:  req.Recipient,
		MeterType:  req.MeterType,
	})
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(scheduleMetadata{Phone: req.Phone, MeterType: req.MeterType})
	if err != nil {
		return nil, err
	}

	sp := &models.ScheduledPayment{
		UserID:          req.UserID,
		ServiceType:     req.Service,
		ProviderID:      resolved.provider.ID,
		Recipient:       req.Recipient,
		Amount:          resolved.amount,
		Frequency:       req.Frequency,
		Metadata:        metadata,
		StartDate:       startDate,
		NextPaymentDate: startDate,
	}
	if resolved.pkg != nil {
		sp.PackageID = sql.NullString{String: resolved.pkg.ID, Valid: true}
	}

	return s.db.ScheduledPayment().Insert(ctx, sp)
}

func (s *ScheduleService) List(ctx context.Context, userID string) ([]models.ScheduledPayment, error) {
	return s.db.ScheduledPayment().ListByUser(ctx, userID)
}

// Toggle flips a schedule between active and paused. Resuming clears the
// failure streak.
func (s *ScheduleService) Toggle(ctx context.Context, userID, id string) (*models.ScheduledPayment, error) {
	var sp *models.ScheduledPayment

	err := s.db.WithinTx(ctx, func(db repository.Database) error {
		var err error
		sp, err = db.ScheduledPayment().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return ErrScheduleNotFound
			}
			return err
		}
		if sp.UserID != userID {
			return ErrScheduleNotFound
		}

		switch sp.Status {
		case models.ScheduleStatusActive:
			sp.Status = models.ScheduleStatusPaused
		case models.ScheduleStatusPaused:
			sp.Status = models.ScheduleStatusActive
			sp.ConsecutiveFailures = 0
			if today := truncateToDay(s.now()); sp.NextPaymentDate.Before(today) {
				sp.NextPaymentDate = today
			}
		default:
			return ErrScheduleInactive
		}

		return db.ScheduledPayment().Update(ctx, sp)
	})
	if err != nil {
		return nil, err
	}

	return sp, nil
}

// Due lists active schedules that should run today.
func (s *ScheduleService) Due(ctx context.Context, limit int) ([]models.ScheduledPayment, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.db.ScheduledPayment().ListDue(ctx, truncateToDay(s.now()), limit)
}

// ProcessDue runs one due schedule through the purchase coordinator and does
// the schedule bookkeeping. The purchase error, if any, is returned after the
// bookkeeping is saved so the caller can report it.
func (s *ScheduleService) ProcessDue(ctx context.Context, id string) (*models.ScheduledPayment, *models.Transaction, error) {
	sp, found, err := s.db.ScheduledPayment().GetOne(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrScheduleNotFound
	}
	if sp.Status != models.ScheduleStatusActive {
		return sp, nil, ErrScheduleInactive
	}
	if truncateToDay(sp.NextPaymentDate).After(truncateToDay(s.now())) {
		return sp, nil, ErrScheduleNotDue
	}

	var meta scheduleMetadata
	if len(sp.Metadata) > 0 {
		if err := json.Unmarshal(sp.Metadata, &meta); err != nil {
			return sp, nil, fmt.Errorf("decode schedule metadata: %w", err)
		}
	}

	// one attempt per due date and failure count, so a retried scheduler
	// call cannot charge twice
	key := fmt.Sprintf("schedule:%s:%s:%d", sp.ID, sp.NextPaymentDate.Format(time.DateOnly), sp.ConsecutiveFailures)

	tx, purchaseErr := s.purchases.Purchase(ctx, PurchaseRequest{
		UserID:         sp.UserID,
		Service:        sp.ServiceType,
		ProviderID:     sp.ProviderID,
		PackageID:      sp.PackageID.String,
		Amount:         sp.Amount,
		Recipient:      sp.Recipient,
		Phone:          meta.Phone,
		MeterType:      meta.MeterType,
		IdempotencyKey: key,
	})

	if errors.Is(purchaseErr, ErrDuplicateReference) {
		if tx == nil || tx.Status == models.TransactionStatusPending {
			return sp, tx, purchaseErr
		}
		// an earlier run settled this date but did not record it
		purchaseErr = nil
		if tx.Status == models.TransactionStatusFailed {
			purchaseErr = &ProviderError{Reference: tx.Reference, Message: tx.FailureReason}
		}
	}

	updated, err := s.record(ctx, sp, tx, purchaseErr)
	if err != nil {
		return sp, tx, err
	}

	return updated, tx, purchaseErr
}

func (s *ScheduleService) record(ctx context.Context, due *models.ScheduledPayment, tx *models.Transaction, purchaseErr error) (*models.ScheduledPayment, error) {
	ctx = context.WithoutCancel(ctx)

	var sp *models.ScheduledPayment

	err := s.db.WithinTx(ctx, func(db repository.Database) error {
		var err error
		sp, err = db.ScheduledPayment().GetForUpdate(ctx, due.ID)
		if err != nil {
			return err
		}

		// another run already did the bookkeeping for this date
		if !sp.NextPaymentDate.Equal(due.NextPaymentDate) || sp.ConsecutiveFailures != due.ConsecutiveFailures || sp.Status != due.Status {
			return nil
		}

		now := s.now()
		sp.LastPaymentDate = sql.NullTime{Time: now, Valid: true}
		if tx != nil {
			sp.LastTransactionID = sql.NullString{String: tx.ID, Valid: true}
		}

		if purchaseErr == nil {
			sp.LastPaymentStatus = models.SchedulePaymentSuccess
			sp.FailureReason = ""
			sp.ConsecutiveFailures = 0
			s.advance(sp)
		} else {
			sp.LastPaymentStatus = models.SchedulePaymentFailed
			sp.FailureReason = purchaseErr.Error()
			sp.ConsecutiveFailures++

			if sp.ConsecutiveFailures >= s.maxFailures {
				sp.Status = models.ScheduleStatusPaused
				s.logger.Warn("scheduled payment paused after repeated failures", "id", sp.ID, "failures", sp.ConsecutiveFailures)
			} else {
				s.advance(sp)
			}
		}

		if err := db.ScheduledPayment().Update(ctx, sp); err != nil {
			return err
		}

		_, err = db.Activity().Insert(ctx, &models.ActivityLog{
			UserID:      sp.UserID,
			Entity:      repository.ActivityLogScheduleEntity,
			EntityId:    sp.ID,
			Description: "scheduled payment " + sp.LastPaymentStatus,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return sp, nil
}

// advance moves the next payment date on by the frequency; one-time
// schedules are completed after their single run.
func (s *ScheduleService) advance(sp *models.ScheduledPayment) {
	next, recurring := sp.Frequency.Next(sp.NextPaymentDate)
	if !recurring {
		sp.Status = models.ScheduleStatusCompleted
		return
	}
	sp.NextPaymentDate = next
}
