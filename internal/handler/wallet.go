package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/request"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/validator"
	"github.com/shopspring/decimal"
)

var minFundingAmount = decimal.NewFromInt(100)

type WalletResponseData struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *RouteHandler) HandleWalletDetails(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	wallet, err := h.Accounts.Wallet(r.Context(), user.ID)
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	data := &WalletResponseData{
		ID:        wallet.ID,
		Balance:   wallet.Balance,
		Currency:  wallet.Currency,
		Status:    wallet.Status,
		CreatedAt: wallet.CreatedAt,
	}

	message := "Wallet details fetched successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleWalletHistory(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, "Wallet history retrieved successfully")
}

// HandleWalletFund starts a funding payment and hands back the gateway's
// checkout link. The wallet is credited later, on verify or webhook.
func (h *RouteHandler) HandleWalletFund(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Amount         decimal.Decimal     `json:"amount"`
		PaymentMethod  string              `json:"payment_method"`
		IdempotencyKey string              `json:"idempotency_key"`
		Validator      validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.PaymentMethod = strings.ToLower(strings.TrimSpace(input.PaymentMethod))

	input.Validator.CheckAmount(input.Amount, minFundingAmount)
	input.Validator.Check(validator.NotBlank(input.PaymentMethod), "Payment method is required")
	input.Validator.Check(input.PaymentMethod == "" || validator.PermittedValue(input.PaymentMethod, h.Gateways.Names()...), "Payment method is not supported")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	tx, err := h.Funding.Initialize(r.Context(), service.FundingRequest{
		UserID:         user.ID,
		Email:          user.Email,
		Phone:          user.PhoneNumber,
		Name:           user.FullName(),
		Amount:         input.Amount,
		Gateway:        input.PaymentMethod,
		IdempotencyKey: idempotencyKey(r, input.IdempotencyKey),
	})
	if err != nil {
		h.handleServiceError(w, r, err, tx)
		return
	}

	data := map[string]any{
		"transaction":       newTransactionResponse(tx),
		"authorization_url": tx.AuthorizationURL.String,
	}

	message := "Wallet funding initiated successfully"
	err = response.JSONTransactionResponse(w, http.StatusOK, data, tx.Reference, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleWalletVerify(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	tx, err := h.Funding.Verify(r.Context(), user.ID, r.PathValue("reference"))
	if err != nil {
		h.handleServiceError(w, r, err, tx)
		return
	}

	message := "Payment verification completed"
	err = response.JSONTransactionResponse(w, http.StatusOK, newTransactionResponse(tx), tx.Reference, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
