package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/mocks"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	*fundingFixture
	marker   *mocks.MockMarker
	producer *mocks.MockProducer
	webhooks *WebhookService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	f := newFundingFixture(t, "0")
	marker := &mocks.MockMarker{}
	producer := &mocks.MockProducer{}

	return &webhookFixture{
		fundingFixture: f,
		marker:         marker,
		producer:       producer,
		webhooks:       NewWebhookService(f.db, gateway.NewRegistry(f.gw), marker, producer, f.funding, testLogger),
	}
}

func chargeEvent(gwRef, amount string) *gateway.Event {
	return &gateway.Event{
		Gateway:          "paystack",
		Type:             "charge.success",
		ChargeSucceeded:  true,
		GatewayReference: gwRef,
		Amount:           dec(amount),
		Raw:              []byte(`{"event":"charge.success"}`),
	}
}

func TestWebhookReceive_QueuesOnce(t *testing.T) {
	f := newWebhookFixture(t)
	payload := []byte(`{"event":"charge.success","data":{"reference":"gw-1"}}`)

	f.gw.On("VerifySignature", payload, "sig").Return(nil)
	f.gw.On("ParseEvent", payload).Return(chargeEvent("gw-1", "1000"), nil)

	var queued []byte
	f.producer.On("Produce", mock.Anything, stream.FundingWebhookTopic, []byte("gw-1"), mock.Anything).
		Run(func(args mock.Arguments) { queued = args.Get(3).([]byte) }).
		Return(nil).Once()

	result, err := f.webhooks.Receive(context.Background(), "paystack", payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookQueued, result)

	var msg WebhookMessage
	require.NoError(t, json.Unmarshal(queued, &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, 1, msg.Attempt)
	assert.Equal(t, "gw-1", msg.Event.GatewayReference)
	assert.True(t, dec("1000").Equal(msg.Event.Amount))

	result, err = f.webhooks.Receive(context.Background(), "paystack", payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, result)

	f.producer.AssertNumberOfCalls(t, "Produce", 1)
	assert.Zero(t, f.db.GatewayLookups())
}

func TestWebhookReceive_InvalidSignatureTouchesNothing(t *testing.T) {
	f := newWebhookFixture(t)
	payload := []byte(`{"event":"charge.success"}`)

	f.gw.On("VerifySignature", payload, "forged").Return(gateway.ErrSignatureInvalid)

	_, err := f.webhooks.Receive(context.Background(), "paystack", payload, "forged")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	f.gw.AssertNotCalled(t, "ParseEvent", mock.Anything)
	f.producer.AssertNotCalled(t, "Produce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, f.db.GatewayLookups())
	assert.Zero(t, f.marker.Len())
}

func TestWebhookReceive_Rejections(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.webhooks.Receive(context.Background(), "bitpay", []byte(`{}`), "sig")
	assert.ErrorIs(t, err, ErrUnsupportedGateway)

	malformed := []byte(`not json`)
	f.gw.On("VerifySignature", malformed, "sig").Return(nil)
	f.gw.On("ParseEvent", malformed).Return(nil, gateway.ErrMalformedWebhook)

	_, err = f.webhooks.Receive(context.Background(), "paystack", malformed, "sig")
	assert.ErrorIs(t, err, ErrMalformedWebhook)

	transfer := []byte(`{"event":"transfer.success"}`)
	f.gw.On("VerifySignature", transfer, "sig").Return(nil)
	f.gw.On("ParseEvent", transfer).Return(&gateway.Event{Gateway: "paystack", Type: "transfer.success"}, nil)

	result, err := f.webhooks.Receive(context.Background(), "paystack", transfer, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookDiscarded, result)

	f.producer.AssertNotCalled(t, "Produce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookReceive_ProduceFailureReleasesMarker(t *testing.T) {
	f := newWebhookFixture(t)
	payload := []byte(`{"event":"charge.success"}`)

	f.gw.On("VerifySignature", payload, "sig").Return(nil)
	f.gw.On("ParseEvent", payload).Return(chargeEvent("gw-1", "1000"), nil)
	f.producer.On("Produce", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()
	f.producer.On("Produce", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	_, err := f.webhooks.Receive(context.Background(), "paystack", payload, "sig")
	require.Error(t, err)
	assert.Zero(t, f.marker.Len())

	// the gateway's retry gets through
	result, err := f.webhooks.Receive(context.Background(), "paystack", payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookQueued, result)
}

func TestWebhookApply_CreditsOnce(t *testing.T) {
	f := newWebhookFixture(t)
	pending := f.initialize(t, "1000", "gw-1")

	msg := WebhookMessage{ID: "01J", Attempt: 1, Event: *chargeEvent("gw-1", "1000")}

	result, err := f.webhooks.Apply(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, result)

	result, err = f.webhooks.Apply(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, WebhookDiscarded, result)

	tx, _, err := f.db.Transaction().GetOne(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	f.assertBalance(t, "1000")
	assert.Len(t, f.db.Entries(pending.ID), 1)
}

func TestWebhookApply_Discards(t *testing.T) {
	f := newWebhookFixture(t)

	result, err := f.webhooks.Apply(context.Background(), WebhookMessage{Event: *chargeEvent("gw-unknown", "1000")})
	require.NoError(t, err)
	assert.Equal(t, WebhookDiscarded, result)

	result, err = f.webhooks.Apply(context.Background(), WebhookMessage{Event: gateway.Event{GatewayReference: "gw-1"}})
	require.NoError(t, err)
	assert.Equal(t, WebhookDiscarded, result)

	f.assertBalance(t, "0")
}

func TestWebhookApply_AmountMismatchFails(t *testing.T) {
	f := newWebhookFixture(t)
	pending := f.initialize(t, "1000", "gw-1")

	result, err := f.webhooks.Apply(context.Background(), WebhookMessage{Event: *chargeEvent("gw-1", "10")})
	require.NoError(t, err)
	assert.Equal(t, WebhookApplied, result)

	tx, _, err := f.db.Transaction().GetOne(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	assert.Equal(t, models.FailureReasonAmountMismatch, tx.FailureReason)
	f.assertBalance(t, "0")
}

func TestWebhookAndVerifyRace(t *testing.T) {
	f := newWebhookFixture(t)
	pending := f.initialize(t, "1000", "gw-1")

	f.gw.On("Verify", mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.Verification{Status: gateway.VerifySuccess, Amount: dec("1000")}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.webhooks.Apply(context.Background(), WebhookMessage{Event: *chargeEvent("gw-1", "1000")})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.funding.Verify(context.Background(), f.user.ID, pending.Reference)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f.assertBalance(t, "1000")
	assert.Equal(t, []models.LedgerEntryType{models.LedgerEntryCredit}, entryTypes(f.db.Entries(pending.ID)))
}
