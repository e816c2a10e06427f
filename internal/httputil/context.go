package httputil

import (
	"context"
	"net/http"

	"parishcms/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const adminKey contextKey = "admin"

// WithAdmin attaches the verified admin claims to the request context.
func WithAdmin(r *http.Request, claims *models.AdminClaims) *http.Request {
	ctx := context.WithValue(r.Context(), adminKey, claims)
	return r.WithContext(ctx)
}

// GetAdmin retrieves the admin claims from context, nil if unauthenticated.
func GetAdmin(r *http.Request) *models.AdminClaims {
	claims, _ := r.Context().Value(adminKey).(*models.AdminClaims)
	return claims
}
