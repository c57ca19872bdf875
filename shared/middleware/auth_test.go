package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/couchnbs-api/shared/auth"
)

type stubRoleResolver struct {
	roles map[string]string
	err   error
}

func (s stubRoleResolver) ResolveRole(_ context.Context, userID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	role, ok := s.roles[userID]
	if !ok {
		return "", fmt.Errorf("user %s: %w", userID, auth.ErrSubjectNotFound)
	}
	return role, nil
}

func newProtectedRouter(jwtAuth *auth.JWTAuthenticator, resolver RoleResolver) http.Handler {
	logger := zerolog.Nop()

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(jwtAuth))
		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(claims.User.ID))
		})

		r.With(RequireAdmin(resolver, &logger)).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	jwtAuth := auth.NewJWTAuthenticator("secret", "couchnbs", time.Hour)
	router := newProtectedRouter(jwtAuth, stubRoleResolver{})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"msg":"No token, authorization denied"}`, rec.Body.String())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"msg":"No token, authorization denied"}`, rec.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"msg":"Token is not valid"}`, rec.Body.String())
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := jwtAuth.IssueSession("user-1", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", rec.Body.String())
	})
}

func TestRequireAdmin(t *testing.T) {
	jwtAuth := auth.NewJWTAuthenticator("secret", "couchnbs", time.Hour)
	resolver := stubRoleResolver{roles: map[string]string{
		"admin-1":   "admin",
		"user-1":    "user",
		"demoted-1": "user",
	}}
	router := newProtectedRouter(jwtAuth, resolver)

	call := func(t *testing.T, userID, tokenRole string) *httptest.ResponseRecorder {
		t.Helper()
		token, err := jwtAuth.IssueSession(userID, tokenRole)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("admin passes", func(t *testing.T) {
		rec := call(t, "admin-1", "admin")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("user is rejected", func(t *testing.T) {
		rec := call(t, "user-1", "user")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"msg":"Access denied. Admins only."}`, rec.Body.String())
	})

	t.Run("stale admin token after demotion is rejected", func(t *testing.T) {
		rec := call(t, "demoted-1", "admin")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("deleted user is rejected", func(t *testing.T) {
		rec := call(t, "ghost", "admin")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		failing := newProtectedRouter(jwtAuth, stubRoleResolver{err: errors.New("connection reset")})
		token, err := jwtAuth.IssueSession("admin-1", "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, req)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"msg":"Server error"}`, rec.Body.String())
	})

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
