package middleware

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pazarnet/discovery/internal/auth"
)

// actorRoleKey is the context key for the authenticated actor's role.
type actorRoleKey struct{}

// setActorRole stores the token role in the context.
func setActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, actorRoleKey{}, role)
}

// GetActorRole retrieves the token role from context. Returns empty string if not present.
func GetActorRole(ctx context.Context) string {
	if role, ok := ctx.Value(actorRoleKey{}).(string); ok {
		return role
	}
	return ""
}

// writeAuthError writes a minimal JSON error without importing the api
// package (which imports middleware).
func writeAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	ctx := SetErrorCode(r.Context(), code)
	UpdateResponseContext(w, ctx)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"error":{"code":"`+code+`","message":"`+message+`"}}`)
}

// Authenticate validates the Authorization bearer token and stores the
// tenant ID and role in the request context. Requests without a valid token
// are rejected with 401.
func Authenticate(svc *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, r, http.StatusUnauthorized, "auth_failed", "Missing bearer token")
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				writeAuthError(w, r, http.StatusUnauthorized, "auth_failed", "Invalid or expired token")
				return
			}

			ctx := SetViewerTenant(r.Context(), claims.TenantID)
			ctx = setActorRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Must run inside Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetActorRole(r.Context()) != auth.RoleAdmin {
			writeAuthError(w, r, http.StatusForbidden, "forbidden", "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
