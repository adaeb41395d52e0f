package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signStripe(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts.Unix())))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

const stripeSessionCompleted = `{
	"id": "evt_1",
	"object": "event",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_test_1", "object": "checkout.session", "payment_status": "paid", "amount_total": 300000, "client_reference_id": "PV-FUND-3"}}
}`

func TestStripe_VerifySignature(t *testing.T) {
	s := NewStripe("sk_test", "whsec_test", "", "", nil)
	payload := []byte(stripeSessionCompleted)

	assert.NoError(t, s.VerifySignature(payload, signStripe("whsec_test", payload, time.Now())))
	assert.ErrorIs(t, s.VerifySignature(payload, signStripe("whsec_other", payload, time.Now())), ErrSignatureInvalid)
	assert.ErrorIs(t, s.VerifySignature(payload, signStripe("whsec_test", payload, time.Now().Add(-time.Hour))), ErrSignatureInvalid)
	assert.ErrorIs(t, s.VerifySignature(payload, ""), ErrSignatureInvalid)
}

func TestStripe_ParseEvent(t *testing.T) {
	s := NewStripe("sk_test", "whsec_test", "", "", nil)

	event, err := s.ParseEvent([]byte(stripeSessionCompleted))
	require.NoError(t, err)
	assert.True(t, event.ChargeSucceeded)
	assert.Equal(t, "cs_test_1", event.GatewayReference)
	assert.True(t, decimal.NewFromInt(3000).Equal(event.Amount))

	event, err = s.ParseEvent([]byte(`{"id":"evt_2","type":"customer.created","data":{"object":{"id":"cus_1"}}}`))
	require.NoError(t, err)
	assert.False(t, event.ChargeSucceeded)

	_, err = s.ParseEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedWebhook)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		NewStripe("sk", "wh", "", "", nil),
		NewPaystack("", "sk", "", time.Second),
		NewFlutterwave("", "sk", "h", "", time.Second),
	)

	g, ok := r.Get(PaystackName)
	require.True(t, ok)
	assert.Equal(t, PaystackName, g.Name())

	_, ok = r.Get("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"flutterwave", "paystack", "stripe"}, r.Names())
}
