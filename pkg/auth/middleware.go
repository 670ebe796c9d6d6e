package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/pkg/models"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// ClaimsFromContext returns the authenticated identity stored by the
// middleware, or nil for an unauthenticated request.
func ClaimsFromContext(ctx context.Context) *models.AuthClaims {
	claims, _ := ctx.Value(claimsContextKey).(*models.AuthClaims)
	return claims
}

// ContextWithClaims stores an authenticated identity in the context.
// Exposed so handler tests can build authenticated requests directly.
func ContextWithClaims(ctx context.Context, claims *models.AuthClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// Middleware enforces bearer-token authentication and role membership.
type Middleware struct {
	jwtManager *JWTManager
}

// NewMiddleware creates authentication middleware over a JWT manager.
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{jwtManager: jwtManager}
}

// Authenticate rejects requests without a valid bearer token and stores the
// resulting claims in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: Missing authentication", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "Unauthorized: Invalid authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to validate token")
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequireRoles rejects authenticated requests whose identity carries none of
// the given roles. It must run after Authenticate.
func (m *Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized: Missing authentication", http.StatusUnauthorized)
				return
			}
			if !claims.HasRole(roles...) {
				log.Warn().
					Str("username", claims.Username).
					Strs("required", roles).
					Msg("Insufficient role for request")
				http.Error(w, "Forbidden: Insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
