package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cradoe/payvista/internal/context"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/response"
)

type BeneficiaryResponseData struct {
	ID          string          `json:"id"`
	ProviderID  string          `json:"provider_id"`
	Name        string          `json:"name"`
	Identifier  string          `json:"identifier"`
	ServiceType string          `json:"service_type"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	IsFavorite  bool            `json:"is_favorite"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (h *RouteHandler) HandleListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	serviceType := models.ServiceType(r.URL.Query().Get("service_type"))
	if serviceType != "" && !serviceType.Valid() {
		h.ErrHandler.FailedValidation(w, r, []string{"Unknown service type"})
		return
	}

	beneficiaries, err := h.Beneficiaries.List(r.Context(), user.ID, serviceType)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*BeneficiaryResponseData, len(beneficiaries))
	for i, b := range beneficiaries {
		data[i] = &BeneficiaryResponseData{
			ID:          b.ID,
			ProviderID:  b.ProviderID,
			Name:        b.Name,
			Identifier:  b.Identifier,
			ServiceType: string(b.ServiceType),
			IsFavorite:  b.IsFavorite,
			CreatedAt:   b.CreatedAt,
		}
		if len(b.Metadata) > 0 {
			data[i].Metadata = json.RawMessage(b.Metadata)
		}
	}

	message := "Beneficiaries retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleDeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	err := h.Beneficiaries.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	message := "Beneficiary deleted successfully"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
