package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"parishcms/internal/auth"
	"parishcms/internal/httputil"
)

// adminTokenCookie carries the session token for browser-based editors
// that do not attach an Authorization header.
const adminTokenCookie = "admin_token"

// RequireAdmin verifies the bearer token on admin routes and attaches the
// admin identity to the request context. The caller must hold one of the
// given roles; with no roles listed, any verified token passes.
func RequireAdmin(verifier auth.TokenVerifier, logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if len(roles) > 0 && !hasAnyRole(claims.Roles, roles) {
				logger.Warn("role check failed",
					"user_id", claims.GetUserID(),
					"path", r.URL.Path,
					"required", roles,
				)
				httputil.RespondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, httputil.WithAdmin(r, claims))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(adminTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func hasAnyRole(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
