// internal/auth/provider.go
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/Mike-Sabalan-Automation/workorders/internal/config"
	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/repo"
)

// Provider is a configured OIDC login backend.
type Provider struct {
	OAuth2Config *oauth2.Config
	OIDCVerifier *oidc.IDTokenVerifier
	Issuer       string
}

// SetupProvider initializes the OIDC provider when one is configured.
// Returns nil when SSO is disabled.
func SetupProvider(cfg config.Config) *Provider {
	if cfg.OIDC.Issuer == "" || cfg.OIDC.ClientID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	oidcProv, err := oidc.NewProvider(ctx, cfg.OIDC.Issuer)
	if err != nil {
		slog.Error("oidc provider discovery failed", "issuer", cfg.OIDC.Issuer, "err", err)
		return nil
	}

	conf := &oauth2.Config{
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + "/auth/sso/callback",
		Endpoint:     oidcProv.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return &Provider{
		OAuth2Config: conf,
		OIDCVerifier: oidcProv.Verifier(&oidc.Config{ClientID: conf.ClientID}),
		Issuer:       cfg.OIDC.Issuer,
	}
}

// StartHandler begins the authorization-code flow.
// GET /auth/sso
func StartHandler(p *Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if p == nil {
			http.Error(w, "sso not configured", http.StatusNotFound)
			return
		}
		state := randString(24)
		http.SetCookie(w, &http.Cookie{
			Name:     "oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   cookieSecure,
			SameSite: sameSiteMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		http.Redirect(w, req, p.OAuth2Config.AuthCodeURL(state), http.StatusFound)
	}
}

// CallbackHandler finishes the flow: exchanges the code, verifies the ID
// token, reads the organisation/admin claims the way the original client
// decoded its JWT, upserts the user, and opens a session.
// GET /auth/sso/callback
func CallbackHandler(p *Provider, r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if p == nil {
			http.Error(w, "sso not configured", http.StatusNotFound)
			return
		}
		stateCookie, err := req.Cookie("oauth_state")
		if err != nil || stateCookie.Value == "" || stateCookie.Value != req.URL.Query().Get("state") {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		tok, err := p.OAuth2Config.Exchange(req.Context(), req.URL.Query().Get("code"))
		if err != nil {
			slog.Warn("sso exchange failed", "err", err)
			http.Error(w, "exchange failed", http.StatusBadGateway)
			return
		}
		rawID, _ := tok.Extra("id_token").(string)
		idTok, err := p.OIDCVerifier.Verify(req.Context(), rawID)
		if err != nil {
			slog.Warn("sso id token rejected", "err", err)
			http.Error(w, "invalid id token", http.StatusUnauthorized)
			return
		}

		var idClaims struct {
			Email          string `json:"email"`
			Name           string `json:"name"`
			OrganizationID string `json:"organization_id"`
			IsAdmin        bool   `json:"is_admin"`
		}
		if err := idTok.Claims(&idClaims); err != nil {
			http.Error(w, "bad claims", http.StatusUnauthorized)
			return
		}
		// Tenant claims may ride on the access token instead.
		access := ParseTokenClaims(tok.AccessToken)
		orgID := idClaims.OrganizationID
		if orgID == "" {
			orgID = access.OrganizationID
		}
		if orgID == "" {
			orgID = "org_default"
		}
		admin := idClaims.IsAdmin || access.IsAdmin

		email := strings.ToLower(strings.TrimSpace(idClaims.Email))
		if email == "" {
			http.Error(w, "provider returned no email", http.StatusUnauthorized)
			return
		}
		u, err := r.UpsertUserByVerifiedEmail(req.Context(), email, idClaims.Name, admin, orgID)
		if err != nil {
			http.Error(w, "user upsert failed", http.StatusInternalServerError)
			return
		}

		role := models.RoleTechnician
		if admin {
			role = models.RoleAdmin
		}
		SetSessionCookie(w, models.Session{
			UserID:   u.ID,
			UserRef:  u.ID.String(),
			Email:    u.Email,
			OrgID:    orgID,
			Role:     role,
			Provider: "sso",
			Expiry:   time.Now().Add(sessionTTL),
		})
		http.Redirect(w, req, "/", http.StatusSeeOther)
	}
}
