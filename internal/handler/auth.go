package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/request"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	UserActivityLogRegistrationDescription = "Registered a new account"
	UserActivityLogLoginDescription        = "Logged in"
	UserActivityLogFailedLoginDescription  = "Failed login attempt"

	tokenLifetime = 24 * time.Hour
)

// New user registration validates the input, then creates the user and their
// wallet in one database transaction so neither exists without the other
func (h *RouteHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string              `json:"email"`
		Password    string              `json:"password"`
		FirstName   string              `json:"first_name"`
		LastName    string              `json:"last_name"`
		PhoneNumber string              `json:"phone_number"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// password strength is reported on its own, before the other fields
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.MinRunes(input.FirstName, 2), "First name is too short")

	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(validator.MinRunes(input.LastName, 2), "Last name is too short")

	input.Validator.Check(validator.NotBlank(input.PhoneNumber), "Phone number is required")
	input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Phone number is not valid")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	_, found, err := h.DB.User().GetByEmail(r.Context(), input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if found {
		h.ErrHandler.FailedValidation(w, r, []string{"Email is already in use"})
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	createdUser := &models.User{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		HashedPassword: hashedPassword,
	}

	var walletID string
	err = h.DB.WithinTx(r.Context(), func(tx repository.Database) error {
		userID, err := tx.User().Insert(r.Context(), createdUser)
		if err != nil {
			return err
		}
		createdUser.ID = userID

		walletID, err = tx.Wallet().Insert(r.Context(), &models.Wallet{
			UserID:   userID,
			Currency: models.DefaultCurrency,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhoneNumber) {
			h.ErrHandler.FailedValidation(w, r, []string{"Phone number is already in use"})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// email raced with another registration
			h.ErrHandler.FailedValidation(w, r, []string{"Email is already in use"})
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(backgroundContext(r), &models.ActivityLog{
			UserID:      createdUser.ID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    createdUser.ID,
			Description: UserActivityLogRegistrationDescription,
		})
		return err
	})

	data := map[string]any{
		"ID":        createdUser.ID,
		"Email":     createdUser.Email,
		"FirstName": createdUser.FirstName,
		"LastName":  createdUser.LastName,
		"WalletID":  walletID,
	}

	message := "Account created successfully"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user, found, err := h.DB.User().GetByEmail(r.Context(), input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		h.Helper.BackgroundTask(r, func() error {
			_, err := h.DB.Activity().Insert(backgroundContext(r), &models.ActivityLog{
				UserID:      user.ID,
				Entity:      repository.ActivityLogUserEntity,
				EntityId:    user.ID,
				Description: UserActivityLogFailedLoginDescription,
			})
			return err
		})

		h.ErrHandler.FailedValidation(w, r, []string{"Incorrect email/password"})
		return
	}

	if user.Status != repository.UserAccountActiveStatus {
		message := "Account has been locked. Please contact support"
		err = response.JSONErrorResponse(w, nil, message, http.StatusForbidden, nil)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(backgroundContext(r), &models.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: UserActivityLogLoginDescription,
		})
		return err
	})

	var claims jwt.Claims
	claims.Subject = user.ID

	now := time.Now()
	expiry := now.Add(tokenLifetime)
	claims.Issued = jwt.NewNumericTime(now)
	claims.NotBefore = jwt.NewNumericTime(now)
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]string{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
	}

	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
