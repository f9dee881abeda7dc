package auth

import (
	"context"
	"time"
)

// TokenBlacklist stores revoked token IDs until their natural expiry.
type TokenBlacklist interface {
	// Add blacklists a JTI until the token's original expiry time.
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	// IsBlacklisted reports whether a JTI has been revoked.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// SessionRevoker cuts off all sessions for a user at once. Banning a user
// marks them revoked here; the auth middleware checks it on every request so
// outstanding tokens stop working without tracking individual JTIs.
type SessionRevoker interface {
	// RevokeUser invalidates all sessions of the user for the given duration.
	RevokeUser(ctx context.Context, userID uint, ttl time.Duration) error
	// RestoreUser clears a user revocation, typically on unban.
	RestoreUser(ctx context.Context, userID uint) error
	// IsRevoked reports whether the user's sessions are currently revoked.
	IsRevoked(ctx context.Context, userID uint) (bool, error)
}
