package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the authenticated session placed by the auth
// middleware, or nil outside of it.
func SessionFromContext(ctx context.Context) *service.Session {
	s, _ := ctx.Value(sessionContextKey).(*service.Session)
	return s
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		// Websocket clients cannot set headers; they pass the token in the
		// query instead.
		return r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// AuthMiddleware resolves the bearer token into a session and rejects
// requests without one.
type AuthMiddleware struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthMiddleware(auth service.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, logger: logger}
}

func (m *AuthMiddleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := m.auth.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Unauthorized("session expired or invalid"))
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole is Require plus a role gate.
func (m *AuthMiddleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Require(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if session.Role != role {
			m.logger.Warn("Role check failed",
				zap.String("user_id", session.UserID),
				zap.String("required_role", role),
				zap.String("path", r.URL.Path),
			)
			writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
			return
		}
		next(w, r)
	})
}

func (m *AuthMiddleware) RequireDoctor(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(domain.RoleDoctor, next)
}

func (m *AuthMiddleware) RequirePatient(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireRole(domain.RolePatient, next)
}
