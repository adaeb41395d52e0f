package handler

import (
	"errors"
	"net/http"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/service"
)

func (h *RouteHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	serviceType := models.ServiceType(r.PathValue("service"))
	if !serviceType.Valid() {
		h.ErrHandler.NotFound(w, r)
		return
	}

	providers, err := h.Catalog.Providers(r.Context(), serviceType)
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	message := "Providers retrieved successfully"
	err = response.JSONOkResponse(w, providers, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.Catalog.Packages(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrInvalidProvider) {
		h.ErrHandler.NotFoundMessage(w, r, "provider not found")
		return
	}
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	message := "Packages retrieved successfully"
	err = response.JSONOkResponse(w, packages, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
