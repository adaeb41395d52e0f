package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FlutterwaveName           = "flutterwave"
	flutterwaveDefaultURL     = "https://api.flutterwave.com/v3"
	flutterwaveChargeComplete = "charge.completed"
)

// Flutterwave keys payments by tx_ref, which is our own reference; it is
// used as the gateway reference so webhook lookups work without the
// processor's numeric id.
type Flutterwave struct {
	baseURL     string
	secretKey   string
	webhookHash string
	redirectURL string
	httpClient  *http.Client
}

func NewFlutterwave(baseURL, secretKey, webhookHash, redirectURL string, timeout time.Duration) *Flutterwave {
	if baseURL == "" {
		baseURL = flutterwaveDefaultURL
	}

	return &Flutterwave{
		baseURL:     strings.TrimRight(baseURL, "/"),
		secretKey:   secretKey,
		webhookHash: webhookHash,
		redirectURL: redirectURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (f *Flutterwave) Name() string { return FlutterwaveName }

func (f *Flutterwave) SignatureHeader() string { return "verif-hash" }

type flutterwaveEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type flutterwaveTransaction struct {
	ID        int64           `json:"id"`
	TxRef     string          `json:"tx_ref"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"`
}

func (f *Flutterwave) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	meta := map[string]string{"reference": req.Reference}
	for k, v := range req.Metadata {
		meta[k] = v
	}

	body := map[string]any{
		"tx_ref":       req.Reference,
		"amount":       req.Amount.InexactFloat64(),
		"currency":     req.Currency,
		"redirect_url": f.redirectURL,
		"customer": map[string]string{
			"email":        req.Email,
			"phone_number": req.Phone,
			"name":         req.Name,
		},
		"customizations": map[string]string{
			"title":       "PayVista",
			"description": "Wallet funding",
		},
		"meta": meta,
	}

	var resp flutterwaveEnvelope[struct {
		Link string `json:"link"`
	}]

	if _, err := doJSON(ctx, f.httpClient, FlutterwaveName, http.MethodPost, f.baseURL+"/payments", f.secretKey, body, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" || resp.Data.Link == "" {
		return nil, fmt.Errorf("flutterwave: payment initialization failed: %s", resp.Message)
	}

	return &Authorization{
		AuthorizationURL: resp.Data.Link,
		GatewayReference: req.Reference,
	}, nil
}

func (f *Flutterwave) Verify(ctx context.Context, reference, gatewayReference string) (*Verification, error) {
	txRef := gatewayReference
	if txRef == "" {
		txRef = reference
	}

	var resp flutterwaveEnvelope[flutterwaveTransaction]

	endpoint := f.baseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	raw, err := doJSON(ctx, f.httpClient, FlutterwaveName, http.MethodGet, endpoint, f.secretKey, nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		return nil, fmt.Errorf("flutterwave: payment verification failed: %s", resp.Message)
	}

	verification := &Verification{
		Status:           flutterwaveStatus(resp.Data.Status),
		Amount:           resp.Data.Amount,
		GatewayReference: txRef,
		Message:          resp.Message,
		Raw:              raw,
	}
	if paidAt, err := time.Parse(time.RFC3339, resp.Data.CreatedAt); err == nil {
		verification.PaidAt = paidAt
	}

	return verification, nil
}

func flutterwaveStatus(status string) VerifyStatus {
	switch strings.ToLower(status) {
	case "successful":
		return VerifySuccess
	case "failed", "cancelled":
		return VerifyFailed
	}
	return VerifyPending
}

// VerifySignature compares the verif-hash header with the configured secret hash.
func (f *Flutterwave) VerifySignature(payload []byte, signature string) error {
	if signature == "" || f.webhookHash == "" {
		return ErrSignatureInvalid
	}

	if subtle.ConstantTimeCompare([]byte(signature), []byte(f.webhookHash)) != 1 {
		return ErrSignatureInvalid
	}

	return nil
}

func (f *Flutterwave) ParseEvent(payload []byte) (*Event, error) {
	var body struct {
		Event string                 `json:"event"`
		Data  flutterwaveTransaction `json:"data"`
	}

	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedWebhook, err.Error())
	}
	if body.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedWebhook)
	}

	chargeSucceeded := body.Event == flutterwaveChargeComplete && strings.EqualFold(body.Data.Status, "successful")
	if chargeSucceeded && body.Data.TxRef == "" {
		return nil, fmt.Errorf("%w: missing tx_ref", ErrMalformedWebhook)
	}

	return &Event{
		Gateway:          FlutterwaveName,
		Type:             body.Event,
		ChargeSucceeded:  chargeSucceeded,
		GatewayReference: body.Data.TxRef,
		Amount:           body.Data.Amount,
		Raw:              json.RawMessage(payload),
	}, nil
}
