package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/GyroZepelix/mithril-admin/internal/server"
)

type contextKey string

const (
	// ContextKeyUserID is the context key for the authenticated user's UUID.
	ContextKeyUserID contextKey = "user_id"
	// ContextKeyEmail is the context key for the authenticated user's email.
	ContextKeyEmail contextKey = "email"
	// ContextKeyRole is the context key for the authenticated user's role.
	ContextKeyRole contextKey = "role"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// Middleware returns an HTTP middleware that validates JWT bearer tokens. On
// success it stores the user ID, email and role in the request context; on
// failure it answers 401.
func Middleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header", nil)
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format", nil)
				return
			}

			claims, err := ValidateAccessToken(tokenString, jwtSecret)
			if err != nil {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
				return
			}

			ctx := WithUser(r.Context(), claims.UserID(), claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceRoleMiddleware admits only requests whose bearer token equals key.
// The comparison is constant-time. An empty key admits nobody.
func ServiceRoleMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if key == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "service role credential required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user's UUID, or "" when the
// request is not authenticated.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyUserID).(string)
	return v
}

// EmailFromContext returns the authenticated user's email, or "".
func EmailFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyEmail).(string)
	return v
}

// RoleFromContext returns the authenticated user's role, or "".
func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRole).(string)
	return v
}

// WithUser returns a context carrying an authenticated user, as the bearer
// middleware would set it.
func WithUser(ctx context.Context, userID, email, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, ContextKeyEmail, email)
	return context.WithValue(ctx, ContextKeyRole, role)
}
