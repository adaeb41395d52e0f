package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleStatus(t *testing.T) {
	f := newFixture(t, "0")

	rr := f.serve(t, f.handler.HandleStatus, testRequest{method: http.MethodGet, target: "/status", anonymous: true})
	require.Equal(t, http.StatusOK, rr.Code)

	var data struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	decodeData(t, rr, &data)
	assert.Equal(t, "OK", data.Status)
	assert.Equal(t, "Up and grateful", decodeResponse(t, rr).Message)
}
