package handler

import (
	"net/http"
	"testing"

	"github.com/cradoe/payvista/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleListProviders(t *testing.T) {
	f := newFixture(t, "0")

	rr := f.serve(t, f.handler.HandleListProviders, testRequest{
		method:     http.MethodGet,
		target:     "/services/electricity/providers",
		pathValues: map[string]string{"service": "electricity"},
		anonymous:  true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var providers []models.Provider
	decodeData(t, rr, &providers)
	require.Len(t, providers, 1)
	assert.Equal(t, "IKEDC", providers[0].Code)

	rr = f.serve(t, f.handler.HandleListProviders, testRequest{
		method:     http.MethodGet,
		target:     "/services/betting/providers",
		pathValues: map[string]string{"service": "betting"},
		anonymous:  true,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleListPackages(t *testing.T) {
	f := newFixture(t, "0")

	rr := f.serve(t, f.handler.HandleListPackages, testRequest{
		method:     http.MethodGet,
		target:     "/providers/" + f.mtnData.ID + "/packages",
		pathValues: map[string]string{"id": f.mtnData.ID},
		anonymous:  true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var packages []models.ServicePackage
	decodeData(t, rr, &packages)
	require.Len(t, packages, 1)
	assert.Equal(t, "MTN-1GB", packages[0].Code)
	assert.True(t, dec("300").Equal(packages[0].Price))

	rr = f.serve(t, f.handler.HandleListPackages, testRequest{
		method:     http.MethodGet,
		target:     "/providers/missing/packages",
		pathValues: map[string]string{"id": "missing"},
		anonymous:  true,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
