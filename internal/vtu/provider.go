// Package vtu talks to the VTU aggregator that fulfils airtime, data,
// electricity and cable orders.
package vtu

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Outcome is the normalized result of every aggregator call. Transport
// failures are reported as Success=false, never as a separate error.
type Outcome struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// JSON is the form persisted as a transaction's provider response.
func (o Outcome) JSON() []byte {
	b, err := json.Marshal(o)
	if err != nil {
		return []byte(`{"success":false,"message":"unencodable provider response"}`)
	}
	return b
}

type DeliveryStatus string

const (
	Delivered    DeliveryStatus = "delivered"
	NotDelivered DeliveryStatus = "not_delivered"
	Unknown      DeliveryStatus = "unknown"
)

type Provider interface {
	PurchaseAirtime(ctx context.Context, providerCode, phone string, amount decimal.Decimal, reference string) Outcome
	PurchaseData(ctx context.Context, providerCode, phone, packageCode, reference string) Outcome
	VerifyMeter(ctx context.Context, providerCode, meterNumber, meterType string) Outcome
	PayElectricity(ctx context.Context, providerCode, meterNumber, meterType string, amount decimal.Decimal, phone, reference string) Outcome
	VerifySmartCard(ctx context.Context, providerCode, smartCardNumber string) Outcome
	SubscribeCable(ctx context.Context, providerCode, smartCardNumber, packageCode, phone, reference string) Outcome
	// QueryTransaction asks the aggregator what became of an earlier order.
	QueryTransaction(ctx context.Context, reference string) (DeliveryStatus, Outcome)
}
