package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/cradoe/payvista/internal/response"
)

const maxWebhookBytes = 1_048_576

// HandleWebhook authenticates a gateway notification and queues it. Gateways
// retry anything but a 2xx, so every outcome short of an error answers 200.
func (h *RouteHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	gatewayName := r.PathValue("gateway")

	gw, ok := h.Gateways.Get(gatewayName)
	if !ok {
		h.ErrHandler.NotFound(w, r)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			h.ErrHandler.BadRequest(w, r, errors.New("webhook payload is too large"))
			return
		}
		h.ErrHandler.BadRequest(w, r, errors.New("webhook payload could not be read"))
		return
	}

	result, err := h.Webhooks.Receive(r.Context(), gatewayName, payload, r.Header.Get(gw.SignatureHeader()))
	if err != nil {
		h.handleServiceError(w, r, err, nil)
		return
	}

	data := map[string]any{
		"Result": string(result),
	}

	message := "Webhook received"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
