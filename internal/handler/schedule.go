package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/request"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/validator"
	"github.com/shopspring/decimal"
)

var frequencies = []models.Frequency{
	models.FrequencyOneTime,
	models.FrequencyDaily,
	models.FrequencyWeekly,
	models.FrequencyBiweekly,
	models.FrequencyMonthly,
	models.FrequencyQuarterly,
}

type ScheduledPaymentResponseData struct {
	ID                  string          `json:"id"`
	ServiceType         string          `json:"service_type"`
	ProviderID          string          `json:"provider_id"`
	PackageID           string          `json:"package_id,omitempty"`
	Recipient           string          `json:"recipient"`
	Amount              decimal.Decimal `json:"amount"`
	Frequency           string          `json:"frequency"`
	Status              string          `json:"status"`
	Metadata            json.RawMessage `json:"metadata,omitempty"`
	StartDate           string          `json:"start_date"`
	NextPaymentDate     string          `json:"next_payment_date"`
	LastPaymentDate     *time.Time      `json:"last_payment_date,omitempty"`
	LastPaymentStatus   string          `json:"last_payment_status,omitempty"`
	LastTransactionID   string          `json:"last_transaction_id,omitempty"`
	FailureReason       string          `json:"failure_reason,omitempty"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	CreatedAt           time.Time       `json:"created_at"`
}

func newScheduledPaymentResponse(sp *models.ScheduledPayment) *ScheduledPaymentResponseData {
	data := &ScheduledPaymentResponseData{
		ID:                  sp.ID,
		ServiceType:         string(sp.ServiceType),
		ProviderID:          sp.ProviderID,
		PackageID:           sp.PackageID.String,
		Recipient:           sp.Recipient,
		Amount:              sp.Amount,
		Frequency:           string(sp.Frequency),
		Status:              sp.Status,
		StartDate:           sp.StartDate.Format(time.DateOnly),
		NextPaymentDate:     sp.NextPaymentDate.Format(time.DateOnly),
		LastPaymentStatus:   sp.LastPaymentStatus,
		LastTransactionID:   sp.LastTransactionID.String,
		FailureReason:       sp.FailureReason,
		ConsecutiveFailures: sp.ConsecutiveFailures,
		CreatedAt:           sp.CreatedAt,
	}

	if len(sp.Metadata) > 0 {
		data.Metadata = json.RawMessage(sp.Metadata)
	}
	if sp.LastPaymentDate.Valid {
		last := sp.LastPaymentDate.Time
		data.LastPaymentDate = &last
	}

	return data
}

func newScheduledPaymentList(schedules []models.ScheduledPayment) []*ScheduledPaymentResponseData {
	data := make([]*ScheduledPaymentResponseData, len(schedules))
	for i := range schedules {
		data[i] = newScheduledPaymentResponse(&schedules[i])
	}
	return data
}

func (h *RouteHandler) HandleCreateScheduledPayment(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		ServiceType string              `json:"service_type"`
		ProviderID  string              `json:"provider_id"`
		PackageID   string              `json:"package_id"`
		Amount      decimal.Decimal     `json:"amount"`
		Recipient   string              `json:"recipient"`
		Phone       string              `json:"phone"`
		MeterType   string              `json:"meter_type"`
		Frequency   string              `json:"frequency"`
		StartDate   string              `json:"start_date"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	serviceType := models.ServiceType(input.ServiceType)
	frequency := models.Frequency(input.Frequency)

	startDate, dateErr := time.Parse(time.DateOnly, input.StartDate)

	input.Validator.Check(serviceType.Valid(), "Service type must be one of airtime, data, electricity or cable")
	input.Validator.Check(validator.NotBlank(input.ProviderID), "Provider is required")
	input.Validator.Check(validator.NotBlank(input.Recipient), "Recipient is required")
	input.Validator.Check(validator.PermittedValue(frequency, frequencies...), "Invalid frequency specified")
	input.Validator.Check(dateErr == nil, "Start date must be in YYYY-MM-DD format")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	phone := input.Phone
	if phone == "" {
		phone = user.PhoneNumber
	}

	sp, err := h.Schedules.Create(r.Context(), service.ScheduleRequest{
		UserID:     user.ID,
		Service:    serviceType,
		ProviderID: input.ProviderID,
		PackageID:  input.PackageID,
		Amount:     input.Amount,
		Recipient:  input.Recipient,
		Phone:      phone,
		MeterType:  input.MeterType,
		Frequency:  frequency,
		StartDate:  startDate,
	})
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	message := "Scheduled payment created successfully"
	err = response.JSONCreatedResponse(w, newScheduledPaymentResponse(sp), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleListScheduledPayments(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	schedules, err := h.Schedules.List(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Scheduled payments retrieved successfully"
	err = response.JSONOkResponse(w, newScheduledPaymentList(schedules), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleToggleScheduledPayment(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	sp, err := h.Schedules.Toggle(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	message := "Scheduled payment resumed"
	if sp.Status == models.ScheduleStatusPaused {
		message = "Scheduled payment paused"
	}

	err = response.JSONOkResponse(w, newScheduledPaymentResponse(sp), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleDueScheduledPayments is polled by the external scheduler.
func (h *RouteHandler) HandleDueScheduledPayments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	schedules, err := h.Schedules.Due(r.Context(), limit)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Due scheduled payments retrieved successfully"
	err = response.JSONOkResponse(w, newScheduledPaymentList(schedules), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleProcessScheduledPayment runs one due schedule. A declined purchase is
// still a processed run: the schedule bookkeeping is saved and reported with 200.
func (h *RouteHandler) HandleProcessScheduledPayment(w http.ResponseWriter, r *http.Request) {
	sp, tx, err := h.Schedules.ProcessDue(r.Context(), r.PathValue("id"))

	purchaseFailed := isPurchaseFailure(err)

	if err != nil && !purchaseFailed {
		h.handleServiceError(w, r, err, tx)
		return
	}

	data := map[string]any{
		"schedule": newScheduledPaymentResponse(sp),
	}
	if tx != nil {
		data["transaction"] = newTransactionResponse(tx)
	}

	message := "Scheduled payment processed successfully"
	if purchaseFailed {
		message = "Scheduled payment failed: " + err.Error()
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// isPurchaseFailure reports errors the purchase itself produced, which the
// schedule has already counted as a failed run.
func isPurchaseFailure(err error) bool {
	var providerErr *service.ProviderError
	if errors.As(err, &providerErr) {
		return true
	}

	for _, target := range []error{
		service.ErrInsufficientBalance,
		service.ErrWalletInactive,
		service.ErrWalletNotFound,
		service.ErrInvalidProvider,
		service.ErrInvalidPackage,
		service.ErrInvalidAmount,
		service.ErrInvalidRecipient,
		service.ErrInvalidMeterType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
