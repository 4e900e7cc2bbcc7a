// internal/repo/users.go
package repo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// ---------------- Users & credentials ----------------

func (p *pgRepo) UpsertUserByVerifiedEmail(ctx context.Context, email, name string, admin bool, orgID string) (models.User, error) {
	slog.DebugContext(ctx, "UpsertUserByVerifiedEmail", "email", email)

	var (
		id   pgtype.UUID
		nm   pgtype.Text
		mail string
	)
	err := p.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, is_admin, org_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name)
		RETURNING id, email, name`,
		uuid.New(), email, name, admin, orgID,
	).Scan(&id, &mail, &nm)
	if err != nil {
		slog.ErrorContext(ctx, "UpsertUserByVerifiedEmail failed", "err", err)
		return models.User{}, err
	}
	return models.User{ID: toUUID(id), Email: mail, Name: textOrEmpty(nm)}, nil
}

func (p *pgRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	slog.DebugContext(ctx, "GetUserByID", "user_id", id.String())

	var (
		uid  pgtype.UUID
		nm   pgtype.Text
		mail string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, email, name FROM users WHERE id = $1`, fromUUID(id),
	).Scan(&uid, &mail, &nm)
	if err != nil {
		return models.User{}, models.ErrUserNotFound
	}
	return models.User{ID: toUUID(uid), Email: mail, Name: textOrEmpty(nm)}, nil
}

// GetUserClaims returns the org scope and admin flag stored for the user,
// the local-auth equivalent of the token claims an SSO login carries.
func (p *pgRepo) GetUserClaims(ctx context.Context, id uuid.UUID) (string, bool, error) {
	var (
		orgID string
		admin bool
	)
	err := p.pool.QueryRow(ctx,
		`SELECT org_id, is_admin FROM users WHERE id = $1`, fromUUID(id),
	).Scan(&orgID, &admin)
	if err != nil {
		slog.ErrorContext(ctx, "GetUserClaims failed", "err", err)
		return "", false, models.ErrUserNotFound
	}
	return orgID, admin, nil
}

func (p *pgRepo) CreateLocalCredential(ctx context.Context, uid uuid.UUID, username, phc string) error {
	slog.DebugContext(ctx, "CreateLocalCredential", "username", username)
	_, err := p.pool.Exec(ctx,
		`INSERT INTO local_credentials (user_id, username, password_hash) VALUES ($1, $2, $3)`,
		fromUUID(uid), username, phc)
	return err
}

func (p *pgRepo) GetLocalCredentialByUsername(ctx context.Context, username string) (models.LocalCredential, models.User, error) {
	slog.DebugContext(ctx, "GetLocalCredentialByUsername", "username", username)

	var (
		cid  pgtype.UUID
		phc  string
		uid  pgtype.UUID
		nm   pgtype.Text
		mail string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT c.user_id, c.password_hash, u.id, u.email, u.name
		FROM local_credentials c JOIN users u ON u.id = c.user_id
		WHERE c.username = $1`, username,
	).Scan(&cid, &phc, &uid, &mail, &nm)
	if err != nil {
		return models.LocalCredential{}, models.User{}, models.ErrUserNotFound
	}
	return models.LocalCredential{UserID: toUUID(cid), Username: username, PasswordHash: phc},
		models.User{ID: toUUID(uid), Email: mail, Name: textOrEmpty(nm)}, nil
}

// ---------------- TOTP ----------------

func (p *pgRepo) UserHasTOTP(ctx context.Context, uid uuid.UUID) bool {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM totp_secrets WHERE user_id = $1`, fromUUID(uid)).Scan(&n)
	return err == nil && n > 0
}

func (p *pgRepo) SetTOTPSecret(ctx context.Context, uid uuid.UUID, secret, issuer, label string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO totp_secrets (user_id, secret, issuer, label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET secret = EXCLUDED.secret,
			issuer = EXCLUDED.issuer, label = EXCLUDED.label`,
		fromUUID(uid), secret, issuer, label)
	return err
}

func (p *pgRepo) GetTOTPSecret(ctx context.Context, uid uuid.UUID) (string, bool) {
	var secret string
	err := p.pool.QueryRow(ctx,
		`SELECT secret FROM totp_secrets WHERE user_id = $1`, fromUUID(uid)).Scan(&secret)
	if err != nil {
		return "", false
	}
	return secret, true
}
