package context

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cradoe/payvista/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticatedUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	assert.Nil(t, ContextGetAuthenticatedUser(r))

	r = ContextSetAuthenticatedUser(r, &models.User{ID: "u-1", Email: "ada@example.com"})

	user := ContextGetAuthenticatedUser(r)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)
}

func TestIdempotencyKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/wallet/fund", nil)
	assert.Empty(t, ContextGetIdempotencyKey(r))

	r = ContextSetIdempotencyKey(r, "fund-march")
	assert.Equal(t, "fund-march", ContextGetIdempotencyKey(r))

	// later values do not shadow the key
	r = ContextSetAuthenticatedUser(r, &models.User{ID: "u-1"})
	assert.Equal(t, "fund-march", ContextGetIdempotencyKey(r))
}
