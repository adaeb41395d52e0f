package context

import (
	"context"
	"net/http"

	"github.com/cradoe/payvista/internal/models"
)

type contextKey string

const (
	authenticatedUserContextKey = contextKey("authenticatedUser")
	idempotencyKeyContextKey    = contextKey("idempotencyKey")
)

func ContextSetAuthenticatedUser(r *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedUserContextKey, user)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(authenticatedUserContextKey).(*models.User)
	if !ok {
		return nil
	}

	return user
}

// ContextSetIdempotencyKey stores the client's key for a money-moving
// request. Transaction references are derived from it, so a retry with the
// same key is recognised as a replay.
func ContextSetIdempotencyKey(r *http.Request, key string) *http.Request {
	ctx := context.WithValue(r.Context(), idempotencyKeyContextKey, key)
	return r.WithContext(ctx)
}

// ContextGetIdempotencyKey is empty when the client sent no key.
func ContextGetIdempotencyKey(r *http.Request) string {
	key, _ := r.Context().Value(idempotencyKeyContextKey).(string)
	return key
}
