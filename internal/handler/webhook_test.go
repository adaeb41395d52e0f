package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) webhook(t *testing.T, gatewayName, payload, signature string) (int, string) {
	t.Helper()

	rr := f.serve(t, f.handler.HandleWebhook, testRequest{
		method:     http.MethodPost,
		target:     "/webhooks/" + gatewayName,
		body:       payload,
		pathValues: map[string]string{"gateway": gatewayName},
		headers:    map[string]string{"x-mock-signature": signature},
		anonymous:  true,
	})

	if rr.Code != http.StatusOK {
		return rr.Code, ""
	}

	var data struct {
		Result string `json:"result"`
	}
	decodeData(t, rr, &data)
	return rr.Code, data.Result
}

func TestHandleWebhook_Queued(t *testing.T) {
	f := newFixture(t, "0")

	payload := `{"event":"charge.success","data":{"reference":"gw-1"}}`

	f.gw.On("VerifySignature", []byte(payload), "sig").Return(nil)
	f.gw.On("ParseEvent", []byte(payload)).Return(&gateway.Event{
		Gateway:          "paystack",
		Type:             "charge.success",
		ChargeSucceeded:  true,
		GatewayReference: "gw-1",
		Amount:           dec("5000"),
	}, nil)

	var queued service.WebhookMessage
	f.producer.On("Produce", mock.Anything, stream.FundingWebhookTopic, []byte("gw-1"), mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &queued))
		}).
		Return(nil).Once()

	code, result := f.webhook(t, "paystack", payload, "sig")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(service.WebhookQueued), result)
	assert.Equal(t, "gw-1", queued.Event.GatewayReference)
	assert.Equal(t, 1, queued.Attempt)

	// the same delivery again is acknowledged without a second message
	code, result = f.webhook(t, "paystack", payload, "sig")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(service.WebhookDuplicate), result)

	f.producer.AssertExpectations(t)

	// receiving never touches the ledger
	f.assertBalance(t, "0")
	assert.Zero(t, f.db.GatewayLookups())
}

func TestHandleWebhook_IrrelevantEventDiscarded(t *testing.T) {
	f := newFixture(t, "0")

	payload := `{"event":"transfer.success"}`

	f.gw.On("VerifySignature", mock.Anything, mock.Anything).Return(nil)
	f.gw.On("ParseEvent", mock.Anything).Return(&gateway.Event{Gateway: "paystack", Type: "transfer.success"}, nil)

	code, result := f.webhook(t, "paystack", payload, "sig")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(service.WebhookDiscarded), result)
	f.producer.AssertNotCalled(t, "Produce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		gateway string
		setup   func(f *fixture)
		want    int
	}{
		{
			name:    "unknown gateway",
			gateway: "paypal",
			setup:   func(f *fixture) {},
			want:    http.StatusNotFound,
		},
		{
			name:    "bad signature",
			gateway: "paystack",
			setup: func(f *fixture) {
				f.gw.On("VerifySignature", mock.Anything, mock.Anything).Return(gateway.ErrSignatureInvalid)
			},
			want: http.StatusUnauthorized,
		},
		{
			name:    "malformed payload",
			gateway: "paystack",
			setup: func(f *fixture) {
				f.gw.On("VerifySignature", mock.Anything, mock.Anything).Return(nil)
				f.gw.On("ParseEvent", mock.Anything).Return(nil, fmt.Errorf("%w: missing data", gateway.ErrMalformedWebhook))
			},
			want: http.StatusBadRequest,
		},
		{
			name:    "queue unavailable",
			gateway: "paystack",
			setup: func(f *fixture) {
				f.gw.On("VerifySignature", mock.Anything, mock.Anything).Return(nil)
				f.gw.On("ParseEvent", mock.Anything).Return(&gateway.Event{ChargeSucceeded: true, GatewayReference: "gw-9"}, nil)
				f.producer.On("Produce", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
			},
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "0")
			tt.setup(f)

			code, _ := f.webhook(t, tt.gateway, `{"event":"charge.success"}`, "sig")
			assert.Equal(t, tt.want, code)
			assert.Zero(t, f.marker.Len())
		})
	}
}
