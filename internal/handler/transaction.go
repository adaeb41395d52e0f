package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/validator"
	"github.com/shopspring/decimal"
)

type TransactionResponseData struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Provider         string          `json:"provider,omitempty"`
	Recipient        string          `json:"recipient,omitempty"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	AuthorizationURL string          `json:"authorization_url,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func newTransactionResponse(tx *models.Transaction) *TransactionResponseData {
	data := &TransactionResponseData{
		ID:               tx.ID,
		Reference:        tx.Reference,
		Type:             string(tx.Type),
		Status:           string(tx.Status),
		Amount:           tx.Amount,
		Provider:         tx.Provider,
		Recipient:        tx.Recipient,
		PaymentMethod:    tx.PaymentMethod,
		GatewayReference: tx.GatewayReference.String,
		AuthorizationURL: tx.AuthorizationURL.String,
		FailureReason:    tx.FailureReason,
		CreatedAt:        tx.CreatedAt,
	}

	if len(tx.Metadata) > 0 {
		data.Metadata = json.RawMessage(tx.Metadata)
	}
	if tx.CompletedAt.Valid {
		completedAt := tx.CompletedAt.Time
		data.CompletedAt = &completedAt
	}

	// raw provider payloads stay on the record for support, never in responses
	return data
}

type PaginationData struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type TransactionListResponseData struct {
	Transactions []*TransactionResponseData `json:"transactions"`
	Pagination   PaginationData             `json:"pagination"`
}

var transactionTypes = []string{
	string(models.TransactionTypeWalletFunding),
	string(models.TransactionTypeAirtimePurchase),
	string(models.TransactionTypeDataPurchase),
	string(models.TransactionTypeElectricityPayment),
	string(models.TransactionTypeCableSubscription),
}

var transactionStatuses = []string{
	string(models.TransactionStatusPending),
	string(models.TransactionStatusCompleted),
	string(models.TransactionStatusFailed),
}

func (h *RouteHandler) listTransactions(w http.ResponseWriter, r *http.Request, message string) {
	user := context.ContextGetAuthenticatedUser(r)
	query := retrieveUrlQueryValues(r)

	var v validator.Validator
	v.Check(query.Type == "" || validator.PermittedValue(query.Type, transactionTypes...), "Unknown transaction type")
	v.Check(query.Status == "" || validator.PermittedValue(query.Status, transactionStatuses...), "Unknown transaction status")
	if v.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, v.Errors)
		return
	}

	transactions, total, err := h.Accounts.Transactions(r.Context(), user.ID, repository.TransactionFilter{
		Type:    query.Type,
		Status:  query.Status,
		Page:    query.Page,
		PerPage: query.PerPage,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := &TransactionListResponseData{
		Transactions: make([]*TransactionResponseData, len(transactions)),
		Pagination: PaginationData{
			Page:       query.Page,
			PerPage:    query.PerPage,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(query.PerPage))),
		},
	}
	for i := range transactions {
		data.Transactions[i] = newTransactionResponse(&transactions[i])
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, "Transactions retrieved successfully")
}

func (h *RouteHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	tx, err := h.Accounts.Transaction(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	message := "Transaction retrieved successfully"
	err = response.JSONOkResponse(w, newTransactionResponse(tx), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

type TransactionSummaryResponseData struct {
	TotalCount      int             `json:"total_count"`
	SuccessfulCount int             `json:"successful_count"`
	FailedCount     int             `json:"failed_count"`
	PendingCount    int             `json:"pending_count"`
	TodayAmount     decimal.Decimal `json:"today_amount"`
	WeekAmount      decimal.Decimal `json:"week_amount"`
	MonthAmount     decimal.Decimal `json:"month_amount"`
	AllTimeAmount   decimal.Decimal `json:"all_time_amount"`
}

type TransactionTallyResponseData struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type TransactionStatsResponseData struct {
	ByType  map[string]TransactionTallyResponseData `json:"by_type"`
	ByMonth map[string]TransactionTallyResponseData `json:"by_month"`
}

func (h *RouteHandler) HandleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	summary, err := h.Accounts.Summary(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := &TransactionSummaryResponseData{
		TotalCount:      summary.TotalCount,
		SuccessfulCount: summary.SuccessfulCount,
		FailedCount:     summary.FailedCount,
		PendingCount:    summary.PendingCount,
		TodayAmount:     summary.TodayAmount,
		WeekAmount:      summary.WeekAmount,
		MonthAmount:     summary.MonthAmount,
		AllTimeAmount:   summary.AllTimeAmount,
	}

	message := "Transaction summary retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleTransactionStats(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	stats, err := h.Accounts.Stats(r.Context(), user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := &TransactionStatsResponseData{
		ByType:  make(map[string]TransactionTallyResponseData, len(stats.ByType)),
		ByMonth: make(map[string]TransactionTallyResponseData, len(stats.ByMonth)),
	}
	for txType, tally := range stats.ByType {
		data.ByType[string(txType)] = TransactionTallyResponseData{Count: tally.Count, TotalAmount: tally.TotalAmount}
	}
	for month, tally := range stats.ByMonth {
		data.ByMonth[month] = TransactionTallyResponseData{Count: tally.Count, TotalAmount: tally.TotalAmount}
	}

	message := "Transaction statistics retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
