package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cradoe/payvista/internal/mocks"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/pascaldekloe/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Str0ng!Passw0rd"

func (f *fixture) seedLoginUser(t *testing.T, email, status string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		FirstName:      "Chidi",
		LastName:       "Okeke",
		Email:          email,
		PhoneNumber:    "08099990000",
		Status:         status,
		HashedPassword: string(hash),
	}
	user.ID, err = f.db.User().Insert(context.Background(), user)
	require.NoError(t, err)

	return user
}

func TestHandleAuthRegister(t *testing.T) {
	f := newFixture(t, "0")

	rr := f.serve(t, f.handler.HandleAuthRegister, testRequest{
		method:    http.MethodPost,
		target:    "/auth/register",
		anonymous: true,
		body: map[string]string{
			"email":        "Bola@Example.com",
			"password":     testPassword,
			"first_name":   "Bola",
			"last_name":    "Adeyemi",
			"phone_number": "08031112222",
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var data map[string]string
	decodeData(t, rr, &data)
	assert.Equal(t, "bola@example.com", data["email"])
	require.NotEmpty(t, data["id"])
	require.NotEmpty(t, data["wallet_id"])

	wallet, found, err := f.db.Wallet().GetByUserID(context.Background(), data["id"])
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, data["wallet_id"], wallet.ID)
	assert.True(t, wallet.Balance.IsZero())
	assert.Equal(t, models.DefaultCurrency, wallet.Currency)

	f.wg.Wait()
	var logged bool
	for _, activity := range f.db.Activities() {
		if activity.EntityId == data["id"] && activity.Description == UserActivityLogRegistrationDescription {
			logged = true
		}
	}
	assert.True(t, logged, "registration activity not logged")
}

func TestHandleAuthRegister_Rejections(t *testing.T) {
	valid := func() map[string]string {
		return map[string]string{
			"email":        "bola@example.com",
			"password":     testPassword,
			"first_name":   "Bola",
			"last_name":    "Adeyemi",
			"phone_number": "08031112222",
		}
	}

	tests := []struct {
		name   string
		mutate func(body map[string]string)
	}{
		{"invalid email", func(b map[string]string) { b["email"] = "not-an-email" }},
		{"missing first name", func(b map[string]string) { b["first_name"] = "" }},
		{"invalid phone", func(b map[string]string) { b["phone_number"] = "12345" }},
		{"weak password", func(b map[string]string) { b["password"] = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "0")
			body := valid()
			tt.mutate(body)

			rr := f.serve(t, f.handler.HandleAuthRegister, testRequest{
				method:    http.MethodPost,
				target:    "/auth/register",
				anonymous: true,
				body:      body,
			})
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
		})
	}
}

func TestHandleAuthRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t, "0")

	rr := f.serve(t, f.handler.HandleAuthRegister, testRequest{
		method:    http.MethodPost,
		target:    "/auth/register",
		anonymous: true,
		body: map[string]string{
			"email":        f.user.Email,
			"password":     testPassword,
			"first_name":   "Bola",
			"last_name":    "Adeyemi",
			"phone_number": "08031112222",
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var errs []string
	decodeError(t, rr, &errs)
	assert.Contains(t, errs, "Email is already in use")
}

func TestHandleAuthRegister_PhoneNumberTaken(t *testing.T) {
	f := newFixture(t, "0")
	existing := f.seedLoginUser(t, "chidi@example.com", repository.UserAccountActiveStatus)

	rr := f.serve(t, f.handler.HandleAuthRegister, testRequest{
		method:    http.MethodPost,
		target:    "/auth/register",
		anonymous: true,
		body: map[string]string{
			"email":        "bola@example.com",
			"password":     testPassword,
			"first_name":   "Bola",
			"last_name":    "Adeyemi",
			"phone_number": existing.PhoneNumber,
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var errs []string
	decodeError(t, rr, &errs)
	assert.Contains(t, errs, "Phone number is already in use")

	_, found, err := f.db.User().GetByEmail(context.Background(), "bola@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	f := newFixture(t, "0")
	user := f.seedLoginUser(t, "chidi@example.com", repository.UserAccountActiveStatus)

	rr := f.serve(t, f.handler.HandleAuthLogin, testRequest{
		method:    http.MethodPost,
		target:    "/auth/login",
		anonymous: true,
		body: map[string]string{
			"email":    "chidi@example.com",
			"password": testPassword,
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var data map[string]string
	decodeData(t, rr, &data)
	require.NotEmpty(t, data["auth_token"])
	require.NotEmpty(t, data["token_expiry"])

	claims, err := jwt.HMACCheck([]byte(data["auth_token"]), []byte(mocks.MockConfig.Jwt.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, mocks.MockConfig.BaseURL, claims.Issuer)
	assert.True(t, claims.AcceptAudience(mocks.MockConfig.BaseURL))
	assert.True(t, claims.Valid(time.Now()))
}

func TestHandleAuthLogin_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		status   string
		want     int
	}{
		{"wrong password", "chidi@example.com", "WrongPassw0rd!", repository.UserAccountActiveStatus, http.StatusUnprocessableEntity},
		{"unknown email", "nobody@example.com", testPassword, repository.UserAccountActiveStatus, http.StatusUnprocessableEntity},
		{"blank password", "chidi@example.com", "", repository.UserAccountActiveStatus, http.StatusUnprocessableEntity},
		{"locked account", "chidi@example.com", testPassword, repository.UserAccountLockedStatus, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "0")
			f.seedLoginUser(t, "chidi@example.com", tt.status)

			rr := f.serve(t, f.handler.HandleAuthLogin, testRequest{
				method:    http.MethodPost,
				target:    "/auth/login",
				anonymous: true,
				body: map[string]string{
					"email":    tt.email,
					"password": tt.password,
				},
			})
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())

			res := decodeResponse(t, rr)
			assert.Empty(t, res.Data)
		})
	}
}

func TestHandleAuthLogin_BadJSON(t *testing.T) {
	f := newFixture(t, "0")

	rr := f.serve(t, f.handler.HandleAuthLogin, testRequest{
		method:    http.MethodPost,
		target:    "/auth/login",
		anonymous: true,
		body:      `{"email":`,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
