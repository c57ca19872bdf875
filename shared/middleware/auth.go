package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/shared/auth"
	"github.com/vasapolrittideah/couchnbs-api/shared/httpx"
)

const (
	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
	msgAdminsOnly   = "Access denied. Admins only."
	msgServerError  = "Server error"
	roleAdmin       = "admin"
)

type contextKey struct{}

var sessionClaimsKey = contextKey{}

// SessionVerifier validates a bearer token and returns its claims.
type SessionVerifier interface {
	VerifySession(token string) (*auth.SessionClaims, error)
}

// RoleResolver returns the role currently stored for a user. A user that no
// longer exists is reported with an error wrapping auth.ErrSubjectNotFound.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// Authenticate rejects requests without a valid "Authorization: Bearer" token
// and stores the verified claims on the request context.
func Authenticate(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.Message(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			claims, err := verifier.VerifySession(token)
			if err != nil {
				httpx.Message(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), sessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Authenticate. The role is re-read from the
// store so that a demoted admin loses access before the token expires.
func RequireAdmin(resolver RoleResolver, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httpx.Message(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			role, err := resolver.ResolveRole(r.Context(), claims.User.ID)
			if err != nil {
				if errors.Is(err, auth.ErrSubjectNotFound) {
					httpx.Message(w, http.StatusForbidden, msgAdminsOnly)
					return
				}
				logger.Error().Err(err).Str("user_id", claims.User.ID).Msg("admin check failed to resolve role")
				httpx.Message(w, http.StatusInternalServerError, msgServerError)
				return
			}
			if role != roleAdmin {
				httpx.Message(w, http.StatusForbidden, msgAdminsOnly)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the session claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey).(*auth.SessionClaims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
