package middleware

import (
	"net/http"

	"github.com/karvix-api/internal/domain"
)

// RequireRole returns middleware that allows access only to users whose JWT
// role matches one of allowedRoles.
func RequireRole(allowedRoles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range allowedRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, r, http.StatusForbidden, "forbidden")
		})
	}
}
