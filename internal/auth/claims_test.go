package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims TokenClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestParseTokenClaims(t *testing.T) {
	raw := signedToken(t, TokenClaims{
		OrganizationID: "org_acme",
		IsAdmin:        true,
		Email:          "ops@acme.test",
	})

	got := ParseTokenClaims(raw)
	if got.OrganizationID != "org_acme" || !got.IsAdmin || got.Email != "ops@acme.test" {
		t.Fatalf("claims: %+v", got)
	}
}

func TestParseTokenClaimsMalformed(t *testing.T) {
	if got := ParseTokenClaims("not.a.jwt"); got.OrganizationID != "" || got.IsAdmin {
		t.Fatalf("malformed token must yield zero claims: %+v", got)
	}
	if got := ParseTokenClaims(""); got.OrganizationID != "" {
		t.Fatalf("empty token must yield zero claims: %+v", got)
	}
}
