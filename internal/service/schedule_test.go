package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/vtu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type scheduleFixture struct {
	*fixture
	schedules *ScheduleService
	clock     time.Time
}

func newScheduleFixture(t *testing.T, balance string) *scheduleFixture {
	t.Helper()

	f := &scheduleFixture{fixture: newFixture(t, balance)}
	f.clock = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	f.schedules = NewScheduleService(f.db, f.purchases, testLogger, 3)
	f.schedules.now = func() time.Time { return f.clock }

	return f
}

func (f *scheduleFixture) create(t *testing.T, frequency models.Frequency) *models.ScheduledPayment {
	t.Helper()

	sp, err := f.schedules.Create(context.Background(), ScheduleRequest{
		UserID:     f.user.ID,
		Service:    models.ServiceAirtime,
		ProviderID: f.mtn.ID,
		Amount:     dec("100"),
		Recipient:  "08031234567",
		Frequency:  frequency,
		StartDate:  f.clock,
	})
	require.NoError(t, err)
	return sp
}

func TestScheduleCreate(t *testing.T) {
	f := newScheduleFixture(t, "0")

	sp := f.create(t, models.FrequencyMonthly)
	assert.Equal(t, models.ScheduleStatusActive, sp.Status)
	assert.Equal(t, "2026-03-10", sp.NextPaymentDate.Format(time.DateOnly))
	assert.Equal(t, f.mtn.ID, sp.ProviderID)

	base := ScheduleRequest{
		UserID:     f.user.ID,
		Service:    models.ServiceAirtime,
		ProviderID: f.mtn.ID,
		Amount:     dec("100"),
		Recipient:  "08031234567",
		Frequency:  models.FrequencyWeekly,
		StartDate:  f.clock,
	}

	tests := []struct {
		name    string
		mutate  func(r *ScheduleRequest)
		wantErr error
	}{
		{"bad frequency", func(r *ScheduleRequest) { r.Frequency = "hourly" }, ErrInvalidFrequency},
		{"start in the past", func(r *ScheduleRequest) { r.StartDate = f.clock.AddDate(0, 0, -1) }, ErrStartDateInPast},
		{"unknown provider", func(r *ScheduleRequest) { r.ProviderID = "missing" }, ErrInvalidProvider},
		{"no amount", func(r *ScheduleRequest) { r.Amount = dec("0") }, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)

			_, err := f.schedules.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// a start later today is not in the past
	req := base
	req.StartDate = f.clock.Add(-time.Hour)
	_, err := f.schedules.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestScheduleProcessDue_Success(t *testing.T) {
	f := newScheduleFixture(t, "1000")
	sp := f.create(t, models.FrequencyMonthly)

	f.provider.On("PurchaseAirtime", mock.Anything, "MTN", "08031234567", mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})

	updated, tx, err := f.schedules.ProcessDue(context.Background(), sp.ID)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, models.SchedulePaymentSuccess, updated.LastPaymentStatus)
	assert.Equal(t, tx.ID, updated.LastTransactionID.String)
	assert.Equal(t, "2026-04-10", updated.NextPaymentDate.Format(time.DateOnly))
	assert.Equal(t, models.ScheduleStatusActive, updated.Status)
	f.assertBalance(t, "900")

	_, _, err = f.schedules.ProcessDue(context.Background(), sp.ID)
	assert.ErrorIs(t, err, ErrScheduleNotDue)
}

func TestScheduleProcessDue_PausesAfterRepeatedFailures(t *testing.T) {
	f := newScheduleFixture(t, "1000")
	sp := f.create(t, models.FrequencyDaily)

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: false, Message: "Network error"})

	for run := 1; run <= 3; run++ {
		updated, tx, err := f.schedules.ProcessDue(context.Background(), sp.ID)

		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr, "run %d", run)
		require.NotNil(t, tx)
		assert.Equal(t, models.TransactionStatusFailed, tx.Status)
		assert.Equal(t, run, updated.ConsecutiveFailures)
		assert.Equal(t, models.SchedulePaymentFailed, updated.LastPaymentStatus)

		if run < 3 {
			assert.Equal(t, models.ScheduleStatusActive, updated.Status)
			f.clock = updated.NextPaymentDate
		} else {
			assert.Equal(t, models.ScheduleStatusPaused, updated.Status)
		}
	}

	// every failed run was refunded
	f.assertBalance(t, "1000")

	due, err := f.schedules.Due(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, _, err = f.schedules.ProcessDue(context.Background(), sp.ID)
	assert.ErrorIs(t, err, ErrScheduleInactive)

	resumed, err := f.schedules.Toggle(context.Background(), f.user.ID, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusActive, resumed.Status)
	assert.Zero(t, resumed.ConsecutiveFailures)
}

func TestScheduleProcessDue_InsufficientBalanceCountsAsFailure(t *testing.T) {
	f := newScheduleFixture(t, "10")
	sp := f.create(t, models.FrequencyWeekly)

	updated, tx, err := f.schedules.ProcessDue(context.Background(), sp.ID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, tx)
	assert.Equal(t, 1, updated.ConsecutiveFailures)
	assert.Equal(t, "2026-03-17", updated.NextPaymentDate.Format(time.DateOnly))
	assert.False(t, updated.LastTransactionID.Valid)
}

func TestScheduleProcessDue_OneTimeCompletes(t *testing.T) {
	f := newScheduleFixture(t, "1000")
	sp := f.create(t, models.FrequencyOneTime)

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"})

	updated, _, err := f.schedules.ProcessDue(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusCompleted, updated.Status)

	_, err = f.schedules.Toggle(context.Background(), f.user.ID, sp.ID)
	assert.ErrorIs(t, err, ErrScheduleInactive)
}

func TestScheduleProcessDue_RetriedRunDoesNotChargeTwice(t *testing.T) {
	f := newScheduleFixture(t, "1000")
	sp := f.create(t, models.FrequencyMonthly)

	f.provider.On("PurchaseAirtime", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(vtu.Outcome{Success: true, Message: "ok"}).Once()

	// an earlier attempt for this date purchased but never recorded
	_, err := f.purchases.Purchase(context.Background(), PurchaseRequest{
		UserID:         f.user.ID,
		Service:        models.ServiceAirtime,
		ProviderID:     f.mtn.ID,
		Amount:         dec("100"),
		Recipient:      "08031234567",
		IdempotencyKey: fmt.Sprintf("schedule:%s:2026-03-10:0", sp.ID),
	})
	require.NoError(t, err)

	updated, tx, err := f.schedules.ProcessDue(context.Background(), sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, models.SchedulePaymentSuccess, updated.LastPaymentStatus)

	f.provider.AssertNumberOfCalls(t, "PurchaseAirtime", 1)
	f.assertBalance(t, "900")
}

func TestScheduleToggleAndList(t *testing.T) {
	f := newScheduleFixture(t, "0")
	sp := f.create(t, models.FrequencyWeekly)

	_, err := f.schedules.Toggle(context.Background(), "someone-else", sp.ID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.schedules.Toggle(context.Background(), f.user.ID, "missing")
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	paused, err := f.schedules.Toggle(context.Background(), f.user.ID, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusPaused, paused.Status)

	due, err := f.schedules.Due(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	// resuming after the date has passed makes it due today
	f.clock = f.clock.AddDate(0, 0, 5)
	resumed, err := f.schedules.Toggle(context.Background(), f.user.ID, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", resumed.NextPaymentDate.Format(time.DateOnly))

	due, err = f.schedules.Due(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, sp.ID, due[0].ID)

	list, err := f.schedules.List(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
