package errHandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cradoe/payvista/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestServerErrorMailsNotificationAddress(t *testing.T) {
	mailer := new(mocks.MockMailer)
	mailer.On("Send", "ops@example.com", mock.Anything, []string{"error-notification.tmpl"}).Return(nil).Once()

	e := New("ops@example.com", "http://localhost", mailer, discard)

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/purchases/airtime", nil)

	e.ServerError(rr, r, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, rr.Body.String(), "connection refused")

	mailer.AssertExpectations(t)
}

func TestReportServerErrorOutsideRequest(t *testing.T) {
	e := New("", "http://localhost", nil, discard)

	assert.NotPanics(t, func() { e.ReportServerError(nil, errors.New("worker failed")) })
}

func TestErrorStatuses(t *testing.T) {
	e := New("", "http://localhost", nil, discard)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	tests := []struct {
		name   string
		call   func(w http.ResponseWriter)
		status int
	}{
		{"conflict", func(w http.ResponseWriter) { e.Conflict(w, r, "duplicate request", "", nil) }, http.StatusConflict},
		{"bad gateway", func(w http.ResponseWriter) { e.BadGateway(w, r, "", "", nil) }, http.StatusBadGateway},
		{"unprocessable", func(w http.ResponseWriter) { e.UnprocessableEntity(w, r, errors.New("insufficient wallet balance")) }, http.StatusUnprocessableEntity},
		{"not found", func(w http.ResponseWriter) { e.NotFoundMessage(w, r, "transaction not found") }, http.StatusNotFound},
		{"forbidden", func(w http.ResponseWriter) { e.Forbidden(w, r) }, http.StatusForbidden},
		{"invalid token", func(w http.ResponseWriter) { e.InvalidAuthenticationToken(w, r) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.call(rr)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
