package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"lyceum/internal/auth"
	"lyceum/internal/config"
	"lyceum/internal/models"
)

// contextKey is a private type for context values to avoid key collisions.
type contextKey string

// UserIDKey is the context key for the authenticated user's ID.
const UserIDKey contextKey = "userID"

// UsernameKey is the context key for the authenticated user's name.
const UsernameKey contextKey = "username"

// RoleKey is the context key for the authenticated user's role.
const RoleKey contextKey = "role"

// ClaimsKey is the context key for the full JWT claims.
const ClaimsKey contextKey = "claims"

// AuthMiddleware validates the bearer token, rejects revoked sessions, and
// stores the user's identity in the request context.
func AuthMiddleware(next http.Handler, authCfg config.AuthConfig, blacklist auth.TokenBlacklist, revoker auth.SessionRevoker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, "missing authorization token", http.StatusUnauthorized)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			writeAuthError(w, "invalid authorization header, expected Bearer {token}", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(r.Context(), headerParts[1], authCfg.JWTSecretKey, blacklist)
		if err != nil {
			writeAuthError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		// Session-level revocation covers bans: a banned user's tokens stop
		// working here even though the signature is still valid.
		if revoker != nil {
			revoked, err := revoker.IsRevoked(r.Context(), claims.UserID)
			if err != nil {
				writeAuthError(w, "failed to verify session", http.StatusInternalServerError)
				return
			}
			if revoked {
				writeAuthError(w, "session has been revoked", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		ctx = context.WithValue(ctx, ClaimsKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRoleFromContext(r.Context())
		if !ok || role != models.RoleAdmin {
			writeAuthError(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext returns the authenticated user's ID.
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	return userID, ok
}

// GetUsernameFromContext returns the authenticated user's name.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetRoleFromContext returns the authenticated user's role.
func GetRoleFromContext(ctx context.Context) (models.UserRole, bool) {
	role, ok := ctx.Value(RoleKey).(models.UserRole)
	return role, ok
}

// GetClaimsFromContext returns the full JWT claims.
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

func writeAuthError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
