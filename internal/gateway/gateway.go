// Package gateway wraps the card/bank payment processors used to fund wallets.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

var (
	ErrSignatureInvalid = errors.New("webhook signature is invalid")
	ErrMalformedWebhook = errors.New("webhook payload is malformed")
)

type InitializeRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Reference string
	Email     string
	Phone     string
	Name      string
	Metadata  map[string]string
}

type Authorization struct {
	AuthorizationURL string
	GatewayReference string
}

type VerifyStatus string

const (
	VerifySuccess VerifyStatus = "success"
	VerifyFailed  VerifyStatus = "failed"
	VerifyPending VerifyStatus = "pending"
)

type Verification struct {
	Status           VerifyStatus
	Amount           decimal.Decimal
	PaidAt           time.Time
	GatewayReference string
	Message          string
	Raw              json.RawMessage
}

// Event is a parsed webhook notification.
type Event struct {
	Gateway          string          `json:"gateway"`
	Type             string          `json:"type"`
	ChargeSucceeded  bool            `json:"charge_succeeded"`
	GatewayReference string          `json:"gateway_reference"`
	Amount           decimal.Decimal `json:"amount"`
	Raw              json.RawMessage `json:"raw"`
}

type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error)
	// Verify asks the processor for the settlement state of a payment.
	Verify(ctx context.Context, reference, gatewayReference string) (*Verification, error)
	SignatureHeader() string
	VerifySignature(payload []byte, signature string) error
	ParseEvent(payload []byte) (*Event, error)
}

type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.gateways[name]
	return g, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// minorUnits converts a major-unit amount to kobo/cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
