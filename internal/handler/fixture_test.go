package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/errHandler"
	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/helper"
	"github.com/cradoe/payvista/internal/middleware"
	"github.com/cradoe/payvista/internal/mocks"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	db       *mocks.MemoryDatabase
	provider *mocks.MockProvider
	gw       *mocks.MockGateway
	producer *mocks.MockProducer
	marker   *mocks.MockMarker
	wg       *sync.WaitGroup
	handler  *RouteHandler
	mid      *middleware.Middleware

	user   models.User
	wallet models.Wallet

	mtn      models.Provider
	ikedc    models.Provider
	dstv     models.Provider
	mtnData  models.Provider
	dataPlan models.ServicePackage
	compact  models.ServicePackage
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()

	f := &fixture{
		db:       mocks.NewMemoryDatabase(),
		provider: &mocks.MockProvider{},
		gw:       &mocks.MockGateway{GatewayName: "paystack"},
		producer: &mocks.MockProducer{},
		marker:   &mocks.MockMarker{},
		wg:       &sync.WaitGroup{},
	}

	f.user, f.wallet = f.db.SeedUser(dec(balance))

	f.mtn = f.db.SeedProvider(models.ServiceAirtime, "MTN")
	f.ikedc = f.db.SeedProvider(models.ServiceElectricity, "IKEDC")
	f.dstv = f.db.SeedProvider(models.ServiceCable, "DSTV")
	f.mtnData = f.db.SeedProvider(models.ServiceData, "MTN")
	f.dataPlan = f.db.SeedPackage(f.mtnData.ID, "MTN-1GB", dec("300"))
	f.compact = f.db.SeedPackage(f.dstv.ID, "DSTV-COMPACT", dec("12500"))

	errorHandler := errHandler.New("", mocks.MockConfig.BaseURL, nil, testLogger)
	f.mid = middleware.New(errorHandler, testLogger, f.db.User(), mocks.MockConfig)
	gateways := gateway.NewRegistry(f.gw)
	notifier := &mocks.MockNotifier{}

	beneficiaries := service.NewBeneficiaryService(f.db, testLogger)
	purchases := service.NewPurchaseService(f.db, f.provider, notifier, beneficiaries, testLogger, time.Second)
	funding := service.NewFundingService(f.db, gateways, notifier, testLogger, time.Second)

	f.handler = NewRouteHandler(&RouteHandler{
		DB:            f.db,
		Accounts:      service.NewAccountService(f.db),
		Purchases:     purchases,
		Funding:       funding,
		Webhooks:      service.NewWebhookService(f.db, gateways, f.marker, f.producer, funding, testLogger),
		Gateways:      gateways,
		Catalog:       service.NewCatalogService(f.db, nil, testLogger),
		Beneficiaries: beneficiaries,
		Schedules:     service.NewScheduleService(f.db, purchases, testLogger, 3),
		ErrHandler:    errorHandler,
		Helper:        helper.New(mocks.MockConfig.BaseURL, f.wg, errorHandler),
		Config:        mocks.MockConfig,
		Logger:        testLogger,
	})

	return f
}

type testRequest struct {
	method     string
	target     string
	body       any
	pathValues map[string]string
	headers    map[string]string
	anonymous  bool
}

// serve runs fn against req as the fixture's user, unless req.anonymous.
func (f *fixture) serve(t *testing.T, fn http.HandlerFunc, req testRequest) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader = http.NoBody
	switch b := req.body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	case string:
		body = bytes.NewBufferString(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	r := httptest.NewRequest(req.method, req.target, body)
	r.Header.Set("Content-Type", "application/json")
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	for k, v := range req.pathValues {
		r.SetPathValue(k, v)
	}

	if !req.anonymous {
		user := f.user
		r = context.ContextSetAuthenticatedUser(r, &user)
	}

	rr := httptest.NewRecorder()
	f.mid.IdempotencyKey(fn).ServeHTTP(rr, r)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) response.Response[json.RawMessage] {
	t.Helper()

	var res response.Response[json.RawMessage]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res), rr.Body.String())
	return res
}

// decodeData unmarshals the data member of a successful response into dst.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	res := decodeResponse(t, rr)
	require.True(t, res.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(res.Data, dst))
}

// decodeError unmarshals the error member of a failed response into dst.
func decodeError(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	res := decodeResponse(t, rr)
	require.False(t, res.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(res.Error, dst))
}

// decodeFailure unmarshals the data member of a failed response into dst.
func decodeFailure(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	res := decodeResponse(t, rr)
	require.False(t, res.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(res.Data, dst))
}

func (f *fixture) assertBalance(t *testing.T, want string) {
	t.Helper()

	got := f.db.Balance(f.wallet.ID)
	assert.True(t, dec(want).Equal(got), "balance: want %s, got %s", want, got.String())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
