package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/request"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/validator"
	"github.com/cradoe/payvista/internal/vtu"
	"github.com/shopspring/decimal"
)

var meterTypes = []string{"prepaid", "postpaid"}

// HandlePurchase serves airtime, data, electricity and cable orders. The
// wallet is debited before the provider is called and refunded when the
// provider declines.
func (h *RouteHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	serviceType := models.ServiceType(r.PathValue("service"))
	if !serviceType.Valid() {
		h.ErrHandler.NotFound(w, r)
		return
	}

	var input struct {
		ProviderID      string              `json:"provider_id"`
		PackageID       string              `json:"package_id"`
		Amount          decimal.Decimal     `json:"amount"`
		Recipient       string              `json:"recipient"`
		Phone           string              `json:"phone"`
		MeterType       string              `json:"meter_type"`
		IdempotencyKey  string              `json:"idempotency_key"`
		SaveBeneficiary bool                `json:"save_beneficiary"`
		BeneficiaryName string              `json:"beneficiary_name"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Recipient = strings.TrimSpace(input.Recipient)

	input.Validator.Check(validator.NotBlank(input.ProviderID), "Provider is required")
	input.Validator.Check(validator.NotBlank(input.Recipient), "Recipient is required")

	switch serviceType {
	case models.ServiceAirtime:
		input.Validator.CheckAmount(input.Amount, decimal.Zero)
		input.Validator.Check(validator.Matches(input.Recipient, validator.RgxPhoneNumber), "Recipient must be a valid phone number")
	case models.ServiceData:
		input.Validator.Check(validator.NotBlank(input.PackageID), "Package is required")
		input.Validator.Check(validator.Matches(input.Recipient, validator.RgxPhoneNumber), "Recipient must be a valid phone number")
	case models.ServiceElectricity:
		input.Validator.CheckAmount(input.Amount, decimal.Zero)
		input.Validator.Check(validator.PermittedValue(input.MeterType, meterTypes...), "Meter type must be prepaid or postpaid")
		input.Validator.Check(validator.Matches(input.Recipient, validator.RgxDigits), "Meter number must contain only digits")
	case models.ServiceCable:
		input.Validator.Check(validator.NotBlank(input.PackageID), "Package is required")
		input.Validator.Check(validator.Matches(input.Recipient, validator.RgxDigits), "Smart card number must contain only digits")
	}

	if input.SaveBeneficiary {
		input.Validator.Check(validator.MaxRunes(input.BeneficiaryName, 100), "Beneficiary name is too long")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	phone := input.Phone
	if phone == "" {
		phone = user.PhoneNumber
	}

	tx, err := h.Purchases.Purchase(r.Context(), service.PurchaseRequest{
		UserID:          user.ID,
		Service:         serviceType,
		ProviderID:      input.ProviderID,
		PackageID:       input.PackageID,
		Amount:          input.Amount,
		Recipient:       input.Recipient,
		Phone:           phone,
		MeterType:       input.MeterType,
		IdempotencyKey:  idempotencyKey(r, input.IdempotencyKey),
		SaveBeneficiary: input.SaveBeneficiary,
		BeneficiaryName: input.BeneficiaryName,
	})
	if err != nil {
		h.handleServiceError(w, r, err, tx)
		return
	}

	message := "Purchase successful"
	err = response.JSONTransactionResponse(w, http.StatusCreated, newTransactionResponse(tx), tx.Reference, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type CustomerLookupResponseData struct {
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (h *RouteHandler) HandleVerifyMeter(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProviderID  string              `json:"provider_id"`
		MeterNumber string              `json:"meter_number"`
		MeterType   string              `json:"meter_type"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ProviderID), "Provider is required")
	input.Validator.Check(validator.Matches(input.MeterNumber, validator.RgxDigits), "Meter number must contain only digits")
	input.Validator.Check(validator.PermittedValue(input.MeterType, meterTypes...), "Meter type must be prepaid or postpaid")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	outcome, err := h.Purchases.VerifyMeter(r.Context(), input.ProviderID, input.MeterNumber, input.MeterType)
	h.writeLookup(w, r, outcome, err, "Meter number could not be verified", "Meter verified successfully")
}

func (h *RouteHandler) HandleVerifySmartCard(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProviderID      string              `json:"provider_id"`
		SmartCardNumber string              `json:"smart_card_number"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ProviderID), "Provider is required")
	input.Validator.Check(validator.Matches(input.SmartCardNumber, validator.RgxDigits), "Smart card number must contain only digits")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	outcome, err := h.Purchases.VerifySmartCard(r.Context(), input.ProviderID, input.SmartCardNumber)
	h.writeLookup(w, r, outcome, err, "Smart card number could not be verified", "Smart card verified successfully")
}

// writeLookup reports a declined lookup as a client error: the customer
// number is what the provider rejected.
func (h *RouteHandler) writeLookup(w http.ResponseWriter, r *http.Request, outcome vtu.Outcome, err error, declined, message string) {
	var providerErr *service.ProviderError
	if errors.As(err, &providerErr) {
		h.ErrHandler.FailedValidation(w, r, []string{declined})
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	data := &CustomerLookupResponseData{
		Message: outcome.Message,
		Details: outcome.Data,
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
