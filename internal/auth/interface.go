package auth

import "parishcms/internal/domain/models"

// TokenVerifier validates bearer tokens presented on admin routes.
// The abstraction keeps the middleware agnostic to where keys come from.
type TokenVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.AdminClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
