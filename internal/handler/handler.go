package handler

import (
	dctx "context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cradoe/payvista/internal/config"
	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/errHandler"
	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/helper"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100

)

type RouteHandler struct {
	DB            repository.Database
	Accounts      *service.AccountService
	Purchases     *service.PurchaseService
	Funding       *service.FundingService
	Webhooks      *service.WebhookService
	Gateways      *gateway.Registry
	Catalog       *service.CatalogService
	Beneficiaries *service.BeneficiaryService
	Schedules     *service.ScheduleService
	ErrHandler    *errHandler.ErrorRepository
	Helper        *helper.HelperRepository
	Config        *config.Config
	Logger        *slog.Logger
}

func NewRouteHandler(handler *RouteHandler) *RouteHandler {
	return &RouteHandler{
		DB:            handler.DB,
		Accounts:      handler.Accounts,
		Purchases:     handler.Purchases,
		Funding:       handler.Funding,
		Webhooks:      handler.Webhooks,
		Gateways:      handler.Gateways,
		Catalog:       handler.Catalog,
		Beneficiaries: handler.Beneficiaries,
		Schedules:     handler.Schedules,
		ErrHandler:    handler.ErrHandler,
		Helper:        handler.Helper,
		Config:        handler.Config,
		Logger:        handler.Logger,
	}
}

type queryStringValues struct {
	Type    string
	Status  string
	Page    int
	PerPage int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	query := r.URL.Query()

	queryValues := &queryStringValues{
		Type:    query.Get("type"),
		Status:  query.Get("status"),
		Page:    1,
		PerPage: defaultPerPage,
	}

	if page, err := strconv.Atoi(query.Get("page")); err == nil && page >= 1 {
		queryValues.Page = page
	}

	if perPage, err := strconv.Atoi(query.Get("per_page")); err == nil && perPage > 0 {
		queryValues.PerPage = min(perPage, maxPerPage)
	}

	return queryValues
}

// backgroundContext outlives the request for work handed to BackgroundTask.
func backgroundContext(r *http.Request) dctx.Context {
	return dctx.WithoutCancel(r.Context())
}

// idempotencyKey prefers the body field and falls back to the header.
func idempotencyKey(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return context.ContextGetIdempotencyKey(r)
}

// handleServiceError writes the response for an error returned by a service.
// tx is the transaction the service returned alongside the error, if any.
func (h *RouteHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, tx *models.Transaction) {
	var providerErr *service.ProviderError
	var gatewayErr *service.PaymentGatewayError

	switch {
	case errors.Is(err, service.ErrDuplicateReference):
		reference, existing := transactionPayload(tx)
		h.ErrHandler.Conflict(w, r, "This request has already been processed", reference, existing)

	case errors.As(err, &providerErr):
		reference, failed := transactionPayload(tx)
		h.ErrHandler.BadGateway(w, r, "", reference, failed)

	case errors.As(err, &gatewayErr):
		reference, failed := transactionPayload(tx)
		h.ErrHandler.BadGateway(w, r, "The payment gateway could not process your request, please try again", reference, failed)

	case errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrWalletNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrBeneficiaryNotFound):
		h.ErrHandler.NotFoundMessage(w, r, err.Error())

	case errors.Is(err, service.ErrSignatureInvalid):
		h.ErrHandler.Unauthorized(w, r, "Invalid webhook signature")

	case errors.Is(err, service.ErrMalformedWebhook):
		h.ErrHandler.BadRequest(w, r, err)

	case errors.Is(err, service.ErrInvalidProvider),
		errors.Is(err, service.ErrInvalidPackage),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRecipient),
		errors.Is(err, service.ErrInvalidMeterType),
		errors.Is(err, service.ErrInvalidService),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrWalletInactive),
		errors.Is(err, service.ErrUnsupportedGateway),
		errors.Is(err, service.ErrScheduleNotDue),
		errors.Is(err, service.ErrScheduleInactive),
		errors.Is(err, service.ErrInvalidFrequency),
		errors.Is(err, service.ErrStartDateInPast),
		errors.Is(err, service.ErrNotFunding):
		h.ErrHandler.UnprocessableEntity(w, r, err)

	default:
		h.ErrHandler.ServerError(w, r, err)
	}
}

// transactionPayload is the reference and body describing tx, or nothing
// when the request never got as far as recording one.
func transactionPayload(tx *models.Transaction) (string, any) {
	if tx == nil {
		return "", nil
	}
	return tx.Reference, newTransactionResponse(tx)
}
