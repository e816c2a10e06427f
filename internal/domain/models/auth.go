package models

import "github.com/golang-jwt/jwt/v5"

// AdminClaims represents the JWT claims issued by the identity provider for
// admin console users. Verification happens in middleware; the content core
// only consumes the already-verified identity and role set.
type AdminClaims struct {
	jwt.RegisteredClaims          // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string   `json:"email"`
	Roles                []string `json:"roles"`
}

// GetUserID returns the admin's identifier from the subject claim.
func (c *AdminClaims) GetUserID() string {
	return c.Subject
}

// HasRole reports whether the claim set contains the given role.
func (c *AdminClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
