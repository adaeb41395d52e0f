package app

import (
	"net/http"

	"github.com/cradoe/payvista/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mid := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)
	h := app.handler

	// authenticated wraps routes that need a logged-in user
	authenticated := func(fn http.HandlerFunc) http.Handler {
		return mid.RequireAuthenticatedUser(fn)
	}
	// idempotent additionally honours the Idempotency-Key header
	idempotent := func(fn http.HandlerFunc) http.Handler {
		return mid.RequireAuthenticatedUser(mid.IdempotencyKey(fn))
	}
	scheduler := func(fn http.HandlerFunc) http.Handler {
		return mid.RequireSchedulerToken(fn)
	}

	mux.HandleFunc("GET /status", h.HandleStatus)

	mux.HandleFunc("POST /auth/register", h.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", h.HandleAuthLogin)

	mux.Handle("GET /wallet", authenticated(h.HandleWalletDetails))
	mux.Handle("GET /wallet/history", authenticated(h.HandleWalletHistory))
	mux.Handle("POST /wallet/fund", idempotent(h.HandleWalletFund))
	mux.Handle("GET /wallet/verify/{reference}", authenticated(h.HandleWalletVerify))

	// gateways authenticate with their signature, not a user token
	mux.HandleFunc("POST /webhooks/{gateway}", h.HandleWebhook)

	mux.Handle("GET /services/{service}/providers", authenticated(h.HandleListProviders))
	mux.Handle("GET /providers/{id}/packages", authenticated(h.HandleListPackages))

	mux.Handle("POST /purchases/{service}", idempotent(h.HandlePurchase))
	mux.Handle("POST /electricity/verify", authenticated(h.HandleVerifyMeter))
	mux.Handle("POST /cable/verify", authenticated(h.HandleVerifySmartCard))

	mux.Handle("GET /transactions", authenticated(h.HandleListTransactions))
	mux.Handle("GET /transactions/summary", authenticated(h.HandleTransactionSummary))
	mux.Handle("GET /transactions/stats", authenticated(h.HandleTransactionStats))
	mux.Handle("GET /transactions/{id}", authenticated(h.HandleGetTransaction))

	mux.Handle("GET /beneficiaries", authenticated(h.HandleListBeneficiaries))
	mux.Handle("DELETE /beneficiaries/{id}", authenticated(h.HandleDeleteBeneficiary))

	mux.Handle("POST /scheduled-payments", authenticated(h.HandleCreateScheduledPayment))
	mux.Handle("GET /scheduled-payments", authenticated(h.HandleListScheduledPayments))
	mux.Handle("PATCH /scheduled-payments/{id}/toggle", authenticated(h.HandleToggleScheduledPayment))

	mux.Handle("GET /internal/scheduled-payments/due", scheduler(h.HandleDueScheduledPayments))
	mux.Handle("POST /internal/scheduled-payments/{id}/process", scheduler(h.HandleProcessScheduledPayment))

	return mid.LogAccess(mid.RecoverPanic(mid.Authenticate(mux)))
}
