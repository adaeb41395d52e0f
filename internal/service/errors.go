package service

import (
	"errors"
	"fmt"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/repository"
)

var (
	ErrInvalidProvider     = errors.New("the selected service provider is not available")
	ErrInvalidPackage      = errors.New("the selected package is not available for this provider")
	ErrInvalidAmount       = errors.New("amount must be greater than zero with at most two decimal places")
	ErrInvalidRecipient    = errors.New("recipient is required")
	ErrInvalidMeterType    = errors.New("meter type must be prepaid or postpaid")
	ErrInvalidService      = errors.New("unsupported service type")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrDuplicateReference  = repository.ErrDuplicateReference
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletInactive      = errors.New("wallet is not active")
	ErrSignatureInvalid    = gateway.ErrSignatureInvalid
	ErrMalformedWebhook    = gateway.ErrMalformedWebhook
	ErrUnsupportedGateway  = errors.New("unsupported payment gateway")
	ErrScheduleNotFound    = errors.New("scheduled payment not found")
	ErrScheduleNotDue      = errors.New("scheduled payment is not due yet")
	ErrScheduleInactive    = errors.New("scheduled payment is not active")
	ErrInvalidFrequency    = errors.New("invalid frequency specified")
	ErrStartDateInPast     = errors.New("start date cannot be in the past")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrNotFunding          = errors.New("transaction is not a wallet funding")
)

// ProviderError is returned when the VTU aggregator declined or failed an
// order. The debit has already been refunded and the transaction is failed.
type ProviderError struct {
	Reference string
	Message   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider declined %s: %s", e.Reference, e.Message)
}

// PaymentGatewayError is returned when a payment processor call failed.
// No wallet credit happened.
type PaymentGatewayError struct {
	Op  string
	Err error
}

func (e *PaymentGatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}
