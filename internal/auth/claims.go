// internal/auth/claims.go
package auth

import (
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the tenant claims the backend embeds in its tokens.
type TokenClaims struct {
	OrganizationID string `json:"organization_id"`
	IsAdmin        bool   `json:"is_admin"`
	Email          string `json:"email"`
	jwt.RegisteredClaims
}

// ParseTokenClaims extracts organisation and admin claims from an access
// token. The token was already accepted by the provider during the code
// exchange, so this decodes the payload without re-verifying the
// signature; absent or malformed claims fall back to defaults.
func ParseTokenClaims(raw string) TokenClaims {
	var claims TokenClaims
	if raw == "" {
		return claims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		slog.Debug("auth: token claims not parseable", "err", err)
		return TokenClaims{}
	}
	return claims
}
