package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

const (
	StripeName                    = "stripe"
	stripeCheckoutSessionComplete = "checkout.session.completed"
)

// Stripe funds wallets through hosted checkout sessions; the session id is
// the gateway reference.
type Stripe struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripe(secretKey, webhookSecret, successURL, cancelURL string, backends *stripe.Backends) *Stripe {
	return &Stripe{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (s *Stripe) Name() string { return StripeName }

func (s *Stripe) SignatureHeader() string { return "Stripe-Signature" }

func (s *Stripe) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID:  stripe.String(req.Reference),
		CustomerEmail:      stripe.String(req.Email),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Wallet funding"),
					},
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	return &Authorization{
		AuthorizationURL: session.URL,
		GatewayReference: session.ID,
	}, nil
}

func (s *Stripe) Verify(ctx context.Context, reference, gatewayReference string) (*Verification, error) {
	if gatewayReference == "" {
		return nil, fmt.Errorf("stripe: no checkout session recorded for %s", reference)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.Get(gatewayReference, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}

	raw, _ := json.Marshal(session)

	return &Verification{
		Status:           stripeSessionStatus(session),
		Amount:           fromMinorUnits(session.AmountTotal),
		GatewayReference: session.ID,
		Message:          string(session.PaymentStatus),
		Raw:              raw,
	}, nil
}

func stripeSessionStatus(session *stripe.CheckoutSession) VerifyStatus {
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return VerifySuccess
	}
	if session.Status == stripe.CheckoutSessionStatusExpired {
		return VerifyFailed
	}
	return VerifyPending
}

func (s *Stripe) VerifySignature(payload []byte, signature string) error {
	if signature == "" {
		return ErrSignatureInvalid
	}

	if _, err := webhook.ConstructEvent(payload, signature, s.webhookSecret); err != nil {
		return ErrSignatureInvalid
	}

	return nil
}

func (s *Stripe) ParseEvent(payload []byte) (*Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedWebhook, err.Error())
	}
	if event.Type == "" || event.Data == nil {
		return nil, fmt.Errorf("%w: missing event data", ErrMalformedWebhook)
	}

	parsed := &Event{
		Gateway: StripeName,
		Type:    event.Type,
		Raw:     json.RawMessage(payload),
	}

	if event.Type != stripeCheckoutSessionComplete {
		return parsed, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedWebhook, err.Error())
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrMalformedWebhook)
	}

	parsed.ChargeSucceeded = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	parsed.GatewayReference = session.ID
	parsed.Amount = fromMinorUnits(session.AmountTotal)

	return parsed, nil
}
