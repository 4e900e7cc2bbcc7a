// internal/auth/local.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/Mike-Sabalan-Automation/workorders/internal/httpserver"
	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
	"github.com/Mike-Sabalan-Automation/workorders/internal/repo"
)

const sessionTTL = 8 * time.Hour

// ---------- Public handlers (mount under /auth) ----------

// POST /auth/signup
// Body: { "email": "...", "name": "...", "password": "..." }
// New signups become admins of their own organisation, derived from the
// email prefix, matching how the original deployment bootstrapped tenants.
func SignupHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		email := strings.ToLower(strings.TrimSpace(body.Email))
		if email == "" || len(body.Password) < 8 {
			http.Error(w, "missing fields or weak password", http.StatusBadRequest)
			return
		}

		orgID := "org_default"
		if at := strings.Index(email, "@"); at > 0 {
			orgID = email[:at] + "_org"
		}

		u, err := r.UpsertUserByVerifiedEmail(req.Context(), email, strings.TrimSpace(body.Name), true, orgID)
		if err != nil {
			status, msg := httpserver.PGErrorMessage(err, "user upsert failed")
			http.Error(w, msg, status)
			return
		}

		phc, err := HashPassword(body.Password, defaultArgonParams())
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		if err := r.CreateLocalCredential(req.Context(), u.ID, email, phc); err != nil {
			status, msg := httpserver.PGErrorMessage(err, "account already exists")
			http.Error(w, msg, status)
			return
		}

		SetSessionCookie(w, models.Session{
			UserID:   u.ID,
			UserRef:  u.ID.String(),
			Email:    u.Email,
			OrgID:    orgID,
			Role:     models.RoleAdmin,
			Provider: "local",
			Expiry:   time.Now().Add(sessionTTL),
		})
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
	}
}

// POST /auth/login
// Body: { "username": "...", "password": "...", "totp_code": "123456" }
func LoginHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
			TOTPCode string `json:"totp_code"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		username := strings.ToLower(strings.TrimSpace(body.Username))
		if username == "" || body.Password == "" {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}

		cred, user, err := r.GetLocalCredentialByUsername(req.Context(), username)
		if err != nil {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		if !VerifyPassword(body.Password, cred.PasswordHash) {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}

		// If TOTP is enrolled, enforce it
		if r.UserHasTOTP(req.Context(), user.ID) {
			if strings.TrimSpace(body.TOTPCode) == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error":   "mfa_required",
					"message": "Two-factor code required",
				})
				return
			}
			sec, ok := r.GetTOTPSecret(req.Context(), user.ID)
			if !ok || !validateTOTP(sec, body.TOTPCode) {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error":   "invalid_mfa",
					"message": "Invalid two-factor code",
				})
				return
			}
		}

		orgID, admin, err := r.GetUserClaims(req.Context(), user.ID)
		if err != nil {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		role := models.RoleTechnician
		if admin {
			role = models.RoleAdmin
		}

		SetSessionCookie(w, models.Session{
			UserID:   user.ID,
			UserRef:  user.ID.String(),
			Email:    user.Email,
			OrgID:    orgID,
			Role:     role,
			Provider: "local",
			Expiry:   time.Now().Add(sessionTTL),
		})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "role": role})
	}
}

// POST /auth/logout
func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ClearSessionCookie(w, req)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /auth/me
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess := ReadSession(req)
		if sess == nil {
			writeJSON(w, http.StatusOK, map[string]any{"user": "Local User", "mode": "local"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":   sess.Email,
			"role":   sess.Role,
			"org_id": sess.OrgID,
			"mode":   "remote",
		})
	}
}

// GET /auth/mfa/totp/setup  -> returns { otpauth_url, secret }
func TOTPSetupBeginHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess := ReadSession(req)
		if sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		label := sess.Email
		if label == "" {
			label = sess.UserID.String()
		}
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "WorkOrders",
			AccountName: label,
			Period:      30,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1, // Google Authenticator-compatible
		})
		if err != nil {
			http.Error(w, "totp error", http.StatusInternalServerError)
			return
		}
		if err := r.SetTOTPSecret(req.Context(), sess.UserID, key.Secret(), "WorkOrders", label); err != nil {
			http.Error(w, "store totp error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"otpauth_url": key.URL(),
			"secret":      key.Secret(),
		})
	}
}

// POST /auth/mfa/totp/verify  Body: { "code": "123456" }
func TOTPSetupVerifyHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess := ReadSession(req)
		if sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || strings.TrimSpace(body.Code) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		secret, ok := r.GetTOTPSecret(req.Context(), sess.UserID)
		if !ok {
			http.Error(w, "no totp setup", http.StatusBadRequest)
			return
		}
		if !validateTOTP(secret, body.Code) {
			http.Error(w, "invalid code", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func validateTOTP(secret, code string) bool {
	if totp.Validate(code, secret) {
		return true
	}
	// Allow small clock skew
	ok, _ := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return ok
}

// ----- small rand helper -----

func randString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
