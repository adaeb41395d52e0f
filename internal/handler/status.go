package handler

import (
	"net/http"

	"github.com/cradoe/payvista/internal/response"
	"github.com/cradoe/payvista/internal/version"
)

func (h *RouteHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Status":  "OK",
		"Version": version.Get(),
	}

	message := "Up and grateful"
	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
