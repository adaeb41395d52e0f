package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	PaystackName          = "paystack"
	paystackDefaultURL    = "https://api.paystack.co"
	paystackChargeSuccess = "charge.success"
)

type Paystack struct {
	baseURL     string
	secretKey   string
	callbackURL string
	httpClient  *http.Client
}

func NewPaystack(baseURL, secretKey, callbackURL string, timeout time.Duration) *Paystack {
	if baseURL == "" {
		baseURL = paystackDefaultURL
	}

	return &Paystack{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secretKey:   secretKey,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (p *Paystack) Name() string { return PaystackName }

func (p *Paystack) SignatureHeader() string { return "x-paystack-signature" }

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type paystackTransaction struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	PaidAt    string `json:"paid_at"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	body := map[string]any{
		"amount":    minorUnits(req.Amount),
		"email":     req.Email,
		"reference": req.Reference,
		"currency":  req.Currency,
		"channels":  []string{"card", "bank", "ussd", "bank_transfer"},
		"metadata":  req.Metadata,
	}
	if p.callbackURL != "" {
		body["callback_url"] = p.callbackURL
	}

	var resp paystackEnvelope[struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}]

	if _, err := doJSON(ctx, p.httpClient, PaystackName, http.MethodPost, p.baseURL+"/transaction/initialize", p.secretKey, body, &resp); err != nil {
		return nil, err
	}

	if !resp.Status {
		return nil, fmt.Errorf("paystack: payment initialization failed: %s", resp.Message)
	}

	gatewayReference := resp.Data.Reference
	if gatewayReference == "" {
		gatewayReference = req.Reference
	}

	return &Authorization{
		AuthorizationURL: resp.Data.AuthorizationURL,
		GatewayReference: gatewayReference,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference, gatewayReference string) (*Verification, error) {
	lookup := gatewayReference
	if lookup == "" {
		lookup = reference
	}

	var resp paystackEnvelope[paystackTransaction]

	raw, err := doJSON(ctx, p.httpClient, PaystackName, http.MethodGet, p.baseURL+"/transaction/verify/"+url.PathEscape(lookup), p.secretKey, nil, &resp)
	if err != nil {
		return nil, err
	}

	verification := &Verification{
		Status:           paystackStatus(resp.Data.Status),
		Amount:           fromMinorUnits(resp.Data.Amount),
		GatewayReference: resp.Data.Reference,
		Message:          resp.Message,
		Raw:              raw,
	}
	if !resp.Status {
		verification.Status = VerifyFailed
	}
	if paidAt, err := time.Parse(time.RFC3339, resp.Data.PaidAt); err == nil {
		verification.PaidAt = paidAt
	}

	return verification, nil
}

func paystackStatus(status string) VerifyStatus {
	switch strings.ToLower(status) {
	case "success":
		return VerifySuccess
	case "failed", "abandoned", "reversed":
		return VerifyFailed
	}
	return VerifyPending
}

// VerifySignature checks the HMAC-SHA512 of the raw body keyed by the secret key.
func (p *Paystack) VerifySignature(payload []byte, signature string) error {
	if signature == "" || p.secretKey == "" {
		return ErrSignatureInvalid
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return ErrSignatureInvalid
	}

	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(payload)

	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrSignatureInvalid
	}

	return nil
}

func (p *Paystack) ParseEvent(payload []byte) (*Event, error) {
	var body struct {
		Event string              `json:"event"`
		Data  paystackTransaction `json:"data"`
	}

	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedWebhook, err.Error())
	}
	if body.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedWebhook)
	}

	chargeSucceeded := body.Event == paystackChargeSuccess
	if chargeSucceeded && body.Data.Reference == "" {
		return nil, fmt.Errorf("%w: missing reference", ErrMalformedWebhook)
	}

	return &Event{
		Gateway:          PaystackName,
		Type:             body.Event,
		ChargeSucceeded:  chargeSucceeded,
		GatewayReference: body.Data.Reference,
		Amount:           fromMinorUnits(body.Data.Amount),
		Raw:              json.RawMessage(payload),
	}, nil
}
